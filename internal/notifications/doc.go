// Package notifications delivers run events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Pipeline code
// depends only on the Service interface.
package notifications
