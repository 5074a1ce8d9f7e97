// Package mq — слой обмена сообщениями через RabbitMQ: события о
// новых runs для воркеров, с DLQ для необработанных сообщений.
package mq
