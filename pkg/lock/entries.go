package lock

import (
	"encoding/binary"

	"github.com/backkem/nuki/pkg/client"
	"github.com/backkem/nuki/pkg/message"
)

// List management: keypad codes, authorizations, time control entries and
// the activity log. Each retrieval issues one PIN-gated command and then
// waits on the counters the indication handler fills until the expected
// number of records arrived or the bulk-receive timeout elapses.

// RetrieveKeypadEntries fetches a window of keypad codes.
func (l *Lock) RetrieveKeypadEntries(offset, count uint16) client.CmdResult {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], offset)
	binary.LittleEndian.PutUint16(payload[2:4], count)

	l.mu.Lock()
	l.keypadEntries = nil
	l.keypadReceived = 0
	l.keypadCountKnown = false
	l.mu.Unlock()

	result := l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdRequestKeypadCodes,
		Payload: payload,
	})
	if result != client.CmdResultSuccess {
		return result
	}

	// Wait for KeypadCodeCount, then for the expected number of records.
	result = l.WaitUntil(l.GeneralTimeout(), func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.keypadCountKnown
	})
	if result != client.CmdResultSuccess {
		return result
	}

	expected := int(count)
	l.mu.Lock()
	if int(l.keypadCount) < expected {
		expected = int(l.keypadCount)
	}
	l.mu.Unlock()

	return l.WaitUntil(l.GeneralTimeout(), func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.keypadReceived >= expected
	})
}

// KeypadEntries returns the records of the last retrieval.
func (l *Lock) KeypadEntries() []*KeypadEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*KeypadEntry(nil), l.keypadEntries...)
}

// KeypadEntryCount returns the total reported by the device.
func (l *Lock) KeypadEntryCount() uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.keypadCount
}

// LastKeypadCodeID returns the id assigned by the last AddKeypadCode.
func (l *Lock) LastKeypadCodeID() uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastKeypadCodeID
}

// AddKeypadEntry creates a keypad code.
func (l *Lock) AddKeypadEntry(entry *NewKeypadEntry) client.CmdResult {
	payload, err := EncodeNewKeypadEntry(entry)
	if err != nil {
		return client.CmdResultFailed
	}
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdAddKeypadCode,
		Payload: payload,
	})
}

// UpdateKeypadEntry rewrites a keypad code.
func (l *Lock) UpdateKeypadEntry(entry *UpdatedKeypadEntry) client.CmdResult {
	payload, err := EncodeUpdatedKeypadEntry(entry)
	if err != nil {
		return client.CmdResultFailed
	}
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdUpdateKeypadCode,
		Payload: payload,
	})
}

// DeleteKeypadEntry removes a keypad code by id.
func (l *Lock) DeleteKeypadEntry(codeID uint16) client.CmdResult {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, codeID)
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdRemoveKeypadCode,
		Payload: payload,
	})
}

// RetrieveAuthorizationEntries fetches a window of authorizations.
func (l *Lock) RetrieveAuthorizationEntries(offset, count uint16) client.CmdResult {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], offset)
	binary.LittleEndian.PutUint16(payload[2:4], count)

	l.mu.Lock()
	l.authEntries = nil
	l.authCountKnown = false
	l.mu.Unlock()

	result := l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdRequestAuthorizationEntries,
		Payload: payload,
	})
	if result != client.CmdResultSuccess {
		return result
	}

	result = l.WaitUntil(l.GeneralTimeout(), func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.authCountKnown
	})
	if result != client.CmdResultSuccess {
		return result
	}

	expected := int(count)
	l.mu.Lock()
	if int(l.authCount) < expected {
		expected = int(l.authCount)
	}
	l.mu.Unlock()

	return l.WaitUntil(l.GeneralTimeout(), func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.authEntries) >= expected
	})
}

// AuthorizationEntries returns the records of the last retrieval.
func (l *Lock) AuthorizationEntries() []*AuthorizationEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*AuthorizationEntry(nil), l.authEntries...)
}

// AuthorizationEntryCount returns the total reported by the device.
func (l *Lock) AuthorizationEntryCount() uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.authCount
}

// AddAuthorizationEntry invites a new authorization.
func (l *Lock) AddAuthorizationEntry(entry *NewAuthorizationEntry) client.CmdResult {
	payload, err := EncodeNewAuthorizationEntry(entry)
	if err != nil {
		return client.CmdResultFailed
	}
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdAuthorizationDataInvite,
		Payload: payload,
	})
}

// UpdateAuthorizationEntry rewrites an authorization.
func (l *Lock) UpdateAuthorizationEntry(entry *UpdatedAuthorizationEntry) client.CmdResult {
	payload, err := EncodeUpdatedAuthorizationEntry(entry)
	if err != nil {
		return client.CmdResultFailed
	}
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdUpdateAuthorization,
		Payload: payload,
	})
}

// DeleteAuthorizationEntry revokes an authorization by id.
func (l *Lock) DeleteAuthorizationEntry(authID uint32) client.CmdResult {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, authID)
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdRemoveUserAuthorization,
		Payload: payload,
	})
}

// RetrieveTimeControlEntries fetches all scheduled actions.
func (l *Lock) RetrieveTimeControlEntries() client.CmdResult {
	l.mu.Lock()
	l.timeControlEntries = nil
	l.timeControlKnown = false
	l.mu.Unlock()

	result := l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdRequestTimeControlEntries,
	})
	if result != client.CmdResultSuccess {
		return result
	}

	result = l.WaitUntil(l.GeneralTimeout(), func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.timeControlKnown
	})
	if result != client.CmdResultSuccess {
		return result
	}

	return l.WaitUntil(l.GeneralTimeout(), func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.timeControlEntries) >= int(l.timeControlCount)
	})
}

// TimeControlEntries returns the records of the last retrieval.
func (l *Lock) TimeControlEntries() []*TimeControlEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*TimeControlEntry(nil), l.timeControlEntries...)
}

// AddTimeControlEntry schedules a lock action.
func (l *Lock) AddTimeControlEntry(entry *NewTimeControlEntry) client.CmdResult {
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdAddTimeControlEntry,
		Payload: EncodeNewTimeControlEntry(entry),
	})
}

// UpdateTimeControlEntry rewrites a scheduled action.
func (l *Lock) UpdateTimeControlEntry(entry *TimeControlEntry) client.CmdResult {
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdUpdateTimeControlEntry,
		Payload: EncodeTimeControlEntry(entry),
	})
}

// DeleteTimeControlEntry removes a scheduled action by id.
func (l *Lock) DeleteTimeControlEntry(entryID uint8) client.CmdResult {
	return l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdRemoveTimeControlEntry,
		Payload: []byte{entryID},
	})
}

// RetrieveLogEntries fetches activity log records.
//
// Payload: | start index (4 LE) | count (2 LE) | sort order | total count |
//
// With totalCount set the device only reports LogEntryCount; otherwise the
// requested window of LogEntry records follows.
func (l *Lock) RetrieveLogEntries(startIndex uint32, count uint16, sortOrder uint8, totalCount bool) client.CmdResult {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], startIndex)
	binary.LittleEndian.PutUint16(payload[4:6], count)
	payload[6] = sortOrder
	payload[7] = boolByte(totalCount)

	l.mu.Lock()
	l.logEntries = nil
	l.logCountKnown = false
	l.mu.Unlock()

	result := l.ExecuteAction(&client.Action{
		Kind:    client.KindCommandWithChallengeAndPin,
		Command: message.CmdRequestLogEntries,
		Payload: payload,
	})
	if result != client.CmdResultSuccess {
		return result
	}

	if totalCount {
		return l.WaitUntil(l.GeneralTimeout(), func() bool {
			l.mu.Lock()
			defer l.mu.Unlock()
			return l.logCountKnown
		})
	}

	return l.WaitUntil(l.GeneralTimeout(), func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.logEntries) >= int(count)
	})
}

// LogEntries returns the records of the last retrieval.
func (l *Lock) LogEntries() []*LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*LogEntry(nil), l.logEntries...)
}

// LogEntryCount returns the total reported by the device.
func (l *Lock) LogEntryCount() uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logCount
}

// LoggingEnabled reports the flag from the last LogEntryCount.
func (l *Lock) LoggingEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loggingEnabled
}
