package kafka

import "strings"

// TopicPrefix namespaces every topic this module publishes to.
const TopicPrefix = "regalty"

// Topic builds "<prefix>.<domain>.<action>", e.g. Topic("cart", "updated")
// is "regalty.cart.updated".
func Topic(domain, action string) string {
	return strings.Join([]string{TopicPrefix, domain, action}, ".")
}
