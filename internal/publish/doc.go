// Package publish streams raw readings to Kafka. Optional: the monitor
// runs without it when no brokers are configured.
package publish
