package common

import (
	"encoding/json"
	"testing"

	"cental/src/types"

	"github.com/stretchr/testify/assert"
)

func TestPendingPaymentFromPayload(t *testing.T) {
	// exact body the scheduler produces to the queue, no envelope
	payload := types.JSONB{"id": 42, "payloadId": "a2f1c9d0"}
	body, err := json.Marshal(&payload)
	assert.Nil(t, err)

	paymentId, payloadId := pendingPaymentFromPayload(string(body))
	assert.Equal(t, uint(42), paymentId)
	assert.Equal(t, "a2f1c9d0", payloadId)
}

func TestPendingPaymentFromPayloadMissingFields(t *testing.T) {
	paymentId, payloadId := pendingPaymentFromPayload(`{}`)
	assert.Equal(t, uint(0), paymentId)
	assert.Equal(t, "", payloadId)
}
