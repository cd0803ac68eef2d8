package lock

import "github.com/backkem/nuki/pkg/client"

// Config mutators follow read-modify-write: fetch the current record,
// change one field, write the whole record back. Each mutator therefore
// costs two challenge-response exchanges.

func (l *Lock) mutateConfig(mutate func(*NewConfig)) client.CmdResult {
	current, result := l.RequestConfig()
	if result != client.CmdResultSuccess {
		return result
	}
	next := NewConfigFromConfig(current)
	mutate(next)
	return l.SetConfig(next)
}

func (l *Lock) mutateAdvancedConfig(mutate func(*NewAdvancedConfig)) client.CmdResult {
	current, result := l.RequestAdvancedConfig()
	if result != client.CmdResultSuccess {
		return result
	}
	next := NewAdvancedConfigFromConfig(current)
	mutate(next)
	return l.SetAdvancedConfig(next)
}

// SetName renames the device (at most 32 bytes).
func (l *Lock) SetName(name string) client.CmdResult {
	if len(name) > nameFieldSize {
		return client.CmdResultFailed
	}
	return l.mutateConfig(func(c *NewConfig) { c.Name = name })
}

// SetLatitude sets the installation latitude.
func (l *Lock) SetLatitude(degrees float32) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.Latitude = degrees })
}

// SetLongitude sets the installation longitude.
func (l *Lock) SetLongitude(degrees float32) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.Longitude = degrees })
}

// EnableAutoUnlatch controls pulling the latch on unlock.
func (l *Lock) EnableAutoUnlatch(enable bool) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.AutoUnlatch = enable })
}

// EnablePairing controls whether new clients may pair.
func (l *Lock) EnablePairing(enable bool) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.PairingEnabled = enable })
}

// EnableButton controls the hardware button.
func (l *Lock) EnableButton(enable bool) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.ButtonEnabled = enable })
}

// EnableLedFlash controls the LED signal.
func (l *Lock) EnableLedFlash(enable bool) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.LedEnabled = enable })
}

// SetLedBrightness sets the LED level 0 (off) to 5 (max).
func (l *Lock) SetLedBrightness(level uint8) client.CmdResult {
	if level > 5 {
		level = 5
	}
	return l.mutateConfig(func(c *NewConfig) { c.LedBrightness = level })
}

// SetTimeZoneOffset sets the offset from UTC in minutes.
func (l *Lock) SetTimeZoneOffset(minutes int16) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.TimeZoneOffset = minutes })
}

// SetTimeZoneID selects the IANA-mapped zone the device uses for schedules.
func (l *Lock) SetTimeZoneID(id uint16) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.TimeZoneID = id })
}

// EnableDst controls daylight saving handling.
func (l *Lock) EnableDst(enable bool) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) {
		c.DstMode = 0
		if enable {
			c.DstMode = 1
		}
	})
}

// SetFobAction assigns an action to one of the three fob buttons (1-3).
func (l *Lock) SetFobAction(button uint8, action uint8) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) {
		switch button {
		case 1:
			c.FobAction1 = action
		case 2:
			c.FobAction2 = action
		case 3:
			c.FobAction3 = action
		}
	})
}

// EnableSingleLock selects single instead of double lock on ActionLock.
func (l *Lock) EnableSingleLock(enable bool) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.SingleLock = enable })
}

// SetAdvertisingMode trades beacon cadence against battery life.
func (l *Lock) SetAdvertisingMode(mode AdvertisingMode) client.CmdResult {
	return l.mutateConfig(func(c *NewConfig) { c.AdvertisingMode = mode })
}

// SetUnlockedPositionOffsetDegrees calibrates the unlocked position.
func (l *Lock) SetUnlockedPositionOffsetDegrees(degrees int16) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.UnlockedPositionOffset = degrees })
}

// SetLockedPositionOffsetDegrees calibrates the locked position.
func (l *Lock) SetLockedPositionOffsetDegrees(degrees int16) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.LockedPositionOffset = degrees })
}

// SetSingleLockedPositionOffsetDegrees calibrates the single-locked position.
func (l *Lock) SetSingleLockedPositionOffsetDegrees(degrees int16) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.SingleLockedPositionOffset = degrees })
}

// SetUnlockedToLockedTransitionOffsetDegrees calibrates the transition.
func (l *Lock) SetUnlockedToLockedTransitionOffsetDegrees(degrees int16) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.UnlockedToLockedOffset = degrees })
}

// SetLockNgoTimeout sets the lock-n-go window in seconds.
func (l *Lock) SetLockNgoTimeout(timeout uint8) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.LockNgoTimeout = timeout })
}

// SetSingleButtonPressAction assigns the single-press action.
func (l *Lock) SetSingleButtonPressAction(action ButtonPressAction) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.SingleButtonPressAction = action })
}

// SetDoubleButtonPressAction assigns the double-press action.
func (l *Lock) SetDoubleButtonPressAction(action ButtonPressAction) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.DoubleButtonPressAction = action })
}

// EnableDetachedCylinder declares a detached cylinder installation.
func (l *Lock) EnableDetachedCylinder(enable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.DetachedCylinder = enable })
}

// SetBatteryType selects the battery discharge curve.
func (l *Lock) SetBatteryType(t BatteryType) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.BatteryType = t })
}

// EnableAutoBatteryTypeDetection controls automatic battery detection.
func (l *Lock) EnableAutoBatteryTypeDetection(enable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.AutomaticBatteryTypeDetection = enable })
}

// SetUnlatchDuration sets how long the latch stays pulled, in seconds.
func (l *Lock) SetUnlatchDuration(seconds uint8) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.UnlatchDuration = seconds })
}

// SetAutoLockTimeOut sets the auto-lock delay in seconds.
func (l *Lock) SetAutoLockTimeOut(seconds uint16) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.AutoLockTimeOut = seconds })
}

// DisableAutoUnlock controls the auto-unlock feature.
func (l *Lock) DisableAutoUnlock(disable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.AutoUnLockDisabled = disable })
}

// EnableAutoLock controls the auto-lock feature.
func (l *Lock) EnableAutoLock(enable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.AutoLockEnabled = enable })
}

// EnableImmediateAutoLock locks immediately after unlocking.
func (l *Lock) EnableImmediateAutoLock(enable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.ImmediateAutoLockEnabled = enable })
}

// EnableAutoUpdate controls automatic firmware updates.
func (l *Lock) EnableAutoUpdate(enable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.AutoUpdateEnabled = enable })
}

// EnableNightMode controls the night mode schedule.
func (l *Lock) EnableNightMode(enable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.NightModeEnabled = enable })
}

// SetNightModeStartTime sets the night mode start (hour, minute).
func (l *Lock) SetNightModeStartTime(start [2]uint8) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.NightModeStartTime = start })
}

// SetNightModeEndTime sets the night mode end (hour, minute).
func (l *Lock) SetNightModeEndTime(end [2]uint8) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.NightModeEndTime = end })
}

// EnableNightModeAutoLock controls auto-lock during night mode.
func (l *Lock) EnableNightModeAutoLock(enable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.NightModeAutoLockEnabled = enable })
}

// DisableNightModeAutoUnlock controls auto-unlock during night mode.
func (l *Lock) DisableNightModeAutoUnlock(disable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.NightModeAutoUnlockDisabled = disable })
}

// EnableNightModeImmediateLockOnStart locks when night mode begins.
func (l *Lock) EnableNightModeImmediateLockOnStart(enable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.NightModeImmediateLockOnStart = enable })
}

// SetMotorSpeed selects the motor profile (ultra family).
func (l *Lock) SetMotorSpeed(speed MotorSpeed) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.MotorSpeed = speed })
}

// EnableSlowSpeedDuringNightMode slows the motor at night (ultra family).
func (l *Lock) EnableSlowSpeedDuringNightMode(enable bool) client.CmdResult {
	return l.mutateAdvancedConfig(func(c *NewAdvancedConfig) { c.EnableSlowSpeedDuringNightMode = enable })
}
