package log_messages

const (
	ErrorReadingWebhookBody       = "failed to read webhook body"
	ErrorInvalidWebhookSignature  = "webhook signature verification failed"
	ErrorMalformedWebhookPayload  = "malformed webhook payload"
	ErrorNormalizingWebhookEvent  = "failed to normalize webhook payload into event"
	ErrorReconcilingEvent         = "failed to reconcile event"
	ErrorFetchingCollection       = "error fetching collection document: %v"
	ErrorFetchingInstallment      = "error fetching installment document: %v"
	ErrorUpdatingCollection       = "error updating collection document: %v"
	ErrorUpdatingInstallment      = "error updating installment document: %v"
	ErrorRecordingAudit           = "error inserting audit record: %v"
	ErrorRecordingProcessedEvent  = "error inserting processed event: %v"
	ErrorParkingEvent             = "error inserting parked event: %v"
	ErrorPublishingParkedEvent    = "failed to publish parked event to kafka"
	ErrorPublishingNotification   = "failed to publish payment notification"
	ErrorMarshallingMessage       = "failed to marshal message: %v"
	ErrorInMessagePublishing      = "failed to publish message: %v"
	ErrorPubSubClientCreation     = "error creating pubsub client: %v"
	TopicDoesNotExists            = "pubsub topic does not exist: %v"
	ErrorProviderRequest          = "provider request failed"
	ErrorProviderDecodingResponse = "failed to decode provider response: %v"
	ErrorRateLimitExhausted       = "rate limit retries exhausted for service %s"
	ErrorUnauthorizedOperation    = "actor not authorized for operation"
	ErrorArchivingDocument        = "failed to archive collection document"
	ErrorClosingGCSClient         = "failed to close gcs client"
	ErrorClosingGCSWriter         = "failed to close gcs object writer"
	ErrorKafkaProducerCreation    = "failed to create kafka producer: %v"
)
