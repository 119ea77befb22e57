package notify

import (
	"log/slog"

	pubnub "github.com/pubnub/go"
)

// organizerChannel receives an event for every accepted gate scan so
// organizer dashboards can show a live check-in feed.
const organizerChannel = "organizer-checkins"

// Notifier publishes realtime events over PubNub. When no publish key is
// configured it degrades to a no-op so local development does not need
// PubNub credentials.
type Notifier struct {
	pn *pubnub.PubNub
}

func New(publishKey, subscribeKey, secretKey string) *Notifier {
	if publishKey == "" || subscribeKey == "" {
		slog.Warn("pubnub keys not configured, realtime notifications disabled")
		return &Notifier{}
	}

	cfg := pubnub.NewConfig()
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey
	cfg.SecretKey = secretKey

	return &Notifier{pn: pubnub.NewPubNub(cfg)}
}

// PaymentSucceeded tells the buyer's channel that their pass is ready.
func (n *Notifier) PaymentSucceeded(userID, passID, passType string) {
	n.publish("user-"+userID, map[string]any{
		"type":      "payment_success",
		"pass_id":   passID,
		"pass_type": passType,
	})
}

// PassConsumed pushes an accepted scan onto the organizer feed.
func (n *Notifier) PassConsumed(passID, passType, scannerID string) {
	n.publish(organizerChannel, map[string]any{
		"type":       "pass_consumed",
		"pass_id":    passID,
		"pass_type":  passType,
		"scanned_by": scannerID,
	})
}

// MemberCheckedIn pushes a group member check-in onto the organizer feed.
func (n *Notifier) MemberCheckedIn(teamID, memberID, scannerID string) {
	n.publish(organizerChannel, map[string]any{
		"type":       "member_checked_in",
		"team_id":    teamID,
		"member_id":  memberID,
		"scanned_by": scannerID,
	})
}

func (n *Notifier) publish(channel string, message map[string]any) {
	if n.pn == nil {
		return
	}

	go func() {
		_, _, err := n.pn.Publish().
			Channel(channel).
			Message(message).
			Execute()
		if err != nil {
			slog.Error("pubnub publish failed", "channel", channel, "error", err)
		}
	}()
}
