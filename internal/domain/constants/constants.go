// Package constants holds configuration values shared across layers.
package constants

// Audit publisher providers accepted in pubsub.provider.
const (
	PubSubProviderGoogle = "google"
	PubSubProviderKafka  = "kafka"
	PubSubProviderLocal  = "local"
)

// Deployment environments accepted in env.env.
const (
	EnvLocal      = "local"
	EnvDevelop    = "develop"
	EnvProduction = "production"
)
