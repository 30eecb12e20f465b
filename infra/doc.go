// Package infra holds the technical adapters: the record stores, the MQTT
// bridge, the Redis board cache, metrics sinks and the Slack notifier. Each
// adapter depends only on the contracts declared in the core packages.
package infra
