package common

import (
	"cental/src/lib"
	awslib "cental/src/lib/aws"
	"log"
)

func SQSConsumers() {
	dlq := awslib.NewSQSConsumer("DLQ", func(payload string) {
		log.Println("DLQ: message received")
	})
	dlq.Listen()

	go EmailsToSendConsumer()
	go PendingPaymentsConsumer()
}

func SNSSubscribes() {
	bookingUpdates := awslib.NewSNSSubscriber("BookingUpdates")
	bookingUpdates.Subscribe("sqs", lib.GetQueueArn("BookingUpdates"))
}
