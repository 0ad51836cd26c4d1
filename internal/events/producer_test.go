package events

import (
	"fmt"
	"testing"

	"github.com/IBM/sarama/mocks"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phizone/record-api/internal/models"
)

func testRecordAndPlayer() (*models.Record, *models.Player) {
	player := &models.Player{ID: uuid.New(), Username: "alice"}
	record := &models.Record{
		ID:          uuid.New(),
		ChartID:     uuid.New(),
		OwnerID:     player.ID,
		Score:       987654,
		Accuracy:    0.991,
		Rks:         11.2,
		IsFullCombo: true,
	}
	return record, player
}

func TestPublishRecordCreated(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event struct {
			Type EventType         `json:"type"`
			Data RecordCreatedData `json:"data"`
		}
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.Type != EventRecordCreated {
			return fmt.Errorf("unexpected event type %q", event.Type)
		}
		if event.Data.Score != 987654 || event.Data.Username != "alice" {
			return fmt.Errorf("unexpected payload %+v", event.Data)
		}
		return nil
	})

	p := &Producer{producer: mock, topic: "record-events", enabled: true}
	record, player := testRecordAndPlayer()
	p.PublishRecordCreated(record, player)

	// Close drains the in-flight send; the mock then verifies that the
	// expected message actually went out.
	require.NoError(t, p.Close())
}

func TestPublishRecordCreated_DisabledIsNoOp(t *testing.T) {
	p := Disabled()
	record, player := testRecordAndPlayer()

	p.PublishRecordCreated(record, player)
	assert.NoError(t, p.Close())
}
