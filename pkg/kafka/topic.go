package kafka

// TopicPrefix namespaces every topic this codebase publishes to.
const TopicPrefix = "ecommerce"

// Topic builds a topic name of the form ecommerce.<domain>.<action>.
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
