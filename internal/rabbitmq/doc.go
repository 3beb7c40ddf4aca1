// Package rabbitmq provides low-level RabbitMQ connectivity for the event
// publishing layer.
//
// Components:
//   - ConnectionManager: bounded-timeout connect, optional reconnection
//   - Topology helpers: durable topic exchange declaration
//   - Typed errors with sanitized connection URLs
package rabbitmq
