package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"boostbot/internal/models"
)

func TestClassifySendError(t *testing.T) {
	assert.NoError(t, ClassifySendError(nil))

	tests := []struct {
		err    error
		status string
	}{
		{tele.ErrBlockedByUser, models.ChatStatusBlocked},
		{tele.ErrChatNotFound, models.ChatStatusChatNotFound},
		{tele.ErrUserIsDeactivated, models.ChatStatusDeactivated},
	}
	for _, tt := range tests {
		err := ClassifySendError(tt.err)
		assert.ErrorIs(t, err, ErrRecipientUnreachable)
		assert.ErrorIs(t, err, tt.err)

		var de *DeliveryError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, tt.status, de.Status)
	}

	err := ClassifySendError(errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrDeliveryTransient)
	assert.False(t, IsUnreachable(err))
}

func TestMarkup(t *testing.T) {
	assert.Nil(t, Markup(nil))

	rm := Markup([][]models.Button{
		{{Text: "Stop", Unique: models.ButtonStopBoost}},
		{{Text: "Site", URL: "https://example.com"}, {Text: "Balance", Unique: models.ButtonCurrentBalance}},
	})
	require.NotNil(t, rm)
	require.Len(t, rm.InlineKeyboard, 2)
	assert.Len(t, rm.InlineKeyboard[0], 1)
	assert.Len(t, rm.InlineKeyboard[1], 2)
	assert.Equal(t, "https://example.com", rm.InlineKeyboard[1][0].URL)
	assert.Equal(t, models.ButtonCurrentBalance, rm.InlineKeyboard[1][1].Unique)
}
