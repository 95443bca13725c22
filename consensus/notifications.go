// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package consensus

import (
	"fmt"

	"github.com/MazzeLabs/go-mazze/util/daghash"
	"github.com/MazzeLabs/go-mazze/wire"
)

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various DAG events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	// NTBlockAdded indicates the associated block was added into the DAG.
	NTBlockAdded NotificationType = iota

	// NTEpochSealed indicates a new epoch was sealed on the pivot chain
	// and its ordered block list is ready for execution.
	NTEpochSealed

	// NTReorganization indicates the pivot chain switched branches.
	// Epochs sealed above the fork height on the abandoned branch were
	// retracted; execution must roll back to the fork before applying the
	// epochs that follow.
	NTReorganization
)

// notificationTypeStrings is a map of notification types back to their
// constant names for pretty printing.
var notificationTypeStrings = map[NotificationType]string{
	NTBlockAdded:     "NTBlockAdded",
	NTEpochSealed:    "NTEpochSealed",
	NTReorganization: "NTReorganization",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// BlockAddedNotificationData defines data to be sent along with a
// NTBlockAdded notification.
type BlockAddedNotificationData struct {
	Block      *wire.MsgBlock
	WasPending bool
}

// EpochSealedNotificationData defines data to be sent along with a
// NTEpochSealed notification. Blocks carry their transactions in per-block
// order, so the epoch's transaction order is implied.
type EpochSealedNotificationData struct {
	Epoch *Epoch
}

// ReorganizationNotificationData defines data to be sent along with a
// NTReorganization notification.
type ReorganizationNotificationData struct {
	// ForkHeight is the height of the last pivot block common to the old
	// and new chains. Every epoch sealed above it on the old branch was
	// retracted.
	ForkHeight uint64

	// RetractedPivotHashes are the abandoned pivot blocks, lowest height
	// first.
	RetractedPivotHashes []*daghash.Hash

	// AddedPivotHashes are the pivot blocks of the new branch, lowest
	// height first. Their sealed epochs follow as NTEpochSealed
	// notifications.
	AddedPivotHashes []*daghash.Hash
}

// Notification defines notification that is sent to the caller via the
// callback function provided during the call to New and consists of a
// notification type as well as associated data that depends on the type.
type Notification struct {
	Type NotificationType
	Data interface{}
}

// Subscribe to DAG notifications. Registers a callback to be executed when
// various events take place. See the documentation on Notification and
// NotificationType for details on the types and contents of notifications.
func (g *ConsensusGraph) Subscribe(callback NotificationCallback) {
	g.notificationsLock.Lock()
	defer g.notificationsLock.Unlock()
	g.notifications = append(g.notifications, callback)
}

// sendNotification sends a notification with the passed type and data if the
// caller requested notifications by providing a callback function in the call
// to New.
func (g *ConsensusGraph) sendNotification(typ NotificationType, data interface{}) {
	// Generate and send the notification.
	n := Notification{Type: typ, Data: data}
	g.notificationsLock.RLock()
	for _, callback := range g.notifications {
		callback(&n)
	}
	g.notificationsLock.RUnlock()
}
