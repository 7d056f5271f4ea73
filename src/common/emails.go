package common

import (
	"cental/src/lib"
	awslib "cental/src/lib/aws"
	"cental/src/utils"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/tidwall/gjson"
)

func gjsonStrings(result gjson.Result) []string {
	out := make([]string, 0)
	for _, item := range result.Array() {
		out = append(out, item.String())
	}
	return out
}

func sendMailInputFromPayload(spayload string) *lib.SendMailInput {
	return &lib.SendMailInput{
		From:     gjson.Get(spayload, "from").String(),
		FromName: gjson.Get(spayload, "from-name").String(),
		To:       gjsonStrings(gjson.Get(spayload, "to")),
		Cc:       gjsonStrings(gjson.Get(spayload, "cc")),
		Bcc:      gjsonStrings(gjson.Get(spayload, "bcc")),
		ReplyTo:  gjson.Get(spayload, "reply-to").String(),
		Subject:  gjson.Get(spayload, "subject").String(),
		Body:     gjson.Get(spayload, "body").String(),
		Html:     gjson.Get(spayload, "html").Bool(),
	}
}

// deliverMail sends over SMTP and falls back to SES when the SMTP
// relay is unreachable.
func deliverMail(input *lib.SendMailInput) {
	err := lib.SendMail(input)
	if err == nil {
		log.Printf("[MAILER]: an email has been sent to %s\n", input.To)
		return
	}
	log.Printf("[MAILER] error sending email: %s. Falling back to SES\n", err.Error())
	body := &sestypes.Content{Data: aws.String(input.Body)}
	message := &sestypes.Message{
		Subject: &sestypes.Content{Data: aws.String(input.Subject)},
	}
	if input.Html {
		message.Body = &sestypes.Body{Html: body}
	} else {
		message.Body = &sestypes.Body{Text: body}
	}
	awslib.SESSendMessage(aws.String(input.From), &sestypes.Destination{
		ToAddresses:  input.To,
		CcAddresses:  input.Cc,
		BccAddresses: input.Bcc,
	}, message)
}

func KafkaEmailsToSendConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("Received invalid json body. Aborting")
		return
	}
	input := sendMailInputFromPayload(spayload)
	log.Printf("from [%s] with subject: %s\n", input.From, input.Subject)
	go deliverMail(input)
}

func EmailsToSendConsumer() {
	qname := utils.WithSuffix("EmailsToSend")
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(spayload string) {
		if !gjson.Valid(spayload) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		input := sendMailInputFromPayload(spayload)
		log.Printf("from [%s] with subject: %s\n", input.From, input.Subject)
		go deliverMail(input)
	})
	c.Listen()
}
