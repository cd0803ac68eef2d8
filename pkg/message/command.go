// Command identifiers from the Nuki Smart Lock API v2.
// Every frame on either channel starts with one of these 16-bit codes.

package message

import "fmt"

// Command is a 16-bit command identifier, little-endian on the wire.
type Command uint16

// Command identifiers shared by Smart Lock and Opener.
const (
	CmdEmpty                       Command = 0x0000
	CmdRequestData                 Command = 0x0001
	CmdPublicKey                   Command = 0x0003
	CmdChallenge                   Command = 0x0004
	CmdAuthorizationAuthenticator  Command = 0x0005
	CmdAuthorizationData           Command = 0x0006
	CmdAuthorizationID             Command = 0x0007
	CmdRemoveUserAuthorization     Command = 0x0008
	CmdRequestAuthorizationEntries Command = 0x0009
	CmdAuthorizationEntry          Command = 0x000A
	CmdAuthorizationDataInvite     Command = 0x000B
	CmdKeyturnerStates             Command = 0x000C
	CmdLockAction                  Command = 0x000D
	CmdStatus                      Command = 0x000E
	CmdMostRecentCommand           Command = 0x000F
	CmdOpeningsClosingsSummary     Command = 0x0010
	CmdBatteryReport               Command = 0x0011
	CmdErrorReport                 Command = 0x0012
	CmdSetConfig                   Command = 0x0013
	CmdRequestConfig               Command = 0x0014
	CmdConfig                      Command = 0x0015
	CmdSetSecurityPin              Command = 0x0019
	CmdRequestCalibration          Command = 0x001A
	CmdRequestReboot               Command = 0x001D
	CmdAuthorizationIDConfirmation Command = 0x001E
	CmdAuthorizationIDInvite       Command = 0x001F
	CmdVerifySecurityPin           Command = 0x0020
	CmdUpdateTime                  Command = 0x0021
	CmdUpdateAuthorization         Command = 0x0025
	CmdAuthorizationEntryCount     Command = 0x0027
	CmdRequestLogEntries           Command = 0x0031
	CmdLogEntry                    Command = 0x0032
	CmdLogEntryCount               Command = 0x0033
	CmdEnableLogging               Command = 0x0034
	CmdSetAdvancedConfig           Command = 0x0035
	CmdRequestAdvancedConfig       Command = 0x0036
	CmdAdvancedConfig              Command = 0x0037
	CmdAddTimeControlEntry         Command = 0x0039
	CmdTimeControlEntryCount       Command = 0x003A
	CmdRequestTimeControlEntries   Command = 0x003B
	CmdTimeControlEntry            Command = 0x003C
	CmdRemoveTimeControlEntry      Command = 0x003D
	CmdUpdateTimeControlEntry      Command = 0x003E
	CmdAddKeypadCode               Command = 0x0041
	CmdKeypadCodeID                Command = 0x0042
	CmdRequestKeypadCodes          Command = 0x0043
	CmdKeypadCodeCount             Command = 0x0044
	CmdKeypadCode                  Command = 0x0045
	CmdUpdateKeypadCode            Command = 0x0046
	CmdRemoveKeypadCode            Command = 0x0047
	CmdKeypadAction                Command = 0x0048
	CmdSimpleLockAction            Command = 0x0100
)

var commandNames = map[Command]string{
	CmdEmpty:                       "Empty",
	CmdRequestData:                 "RequestData",
	CmdPublicKey:                   "PublicKey",
	CmdChallenge:                   "Challenge",
	CmdAuthorizationAuthenticator:  "AuthorizationAuthenticator",
	CmdAuthorizationData:           "AuthorizationData",
	CmdAuthorizationID:             "AuthorizationID",
	CmdRemoveUserAuthorization:     "RemoveUserAuthorization",
	CmdRequestAuthorizationEntries: "RequestAuthorizationEntries",
	CmdAuthorizationEntry:          "AuthorizationEntry",
	CmdAuthorizationDataInvite:     "AuthorizationDataInvite",
	CmdKeyturnerStates:             "KeyturnerStates",
	CmdLockAction:                  "LockAction",
	CmdStatus:                      "Status",
	CmdMostRecentCommand:           "MostRecentCommand",
	CmdOpeningsClosingsSummary:     "OpeningsClosingsSummary",
	CmdBatteryReport:               "BatteryReport",
	CmdErrorReport:                 "ErrorReport",
	CmdSetConfig:                   "SetConfig",
	CmdRequestConfig:               "RequestConfig",
	CmdConfig:                      "Config",
	CmdSetSecurityPin:              "SetSecurityPin",
	CmdRequestCalibration:          "RequestCalibration",
	CmdRequestReboot:               "RequestReboot",
	CmdAuthorizationIDConfirmation: "AuthorizationIDConfirmation",
	CmdAuthorizationIDInvite:       "AuthorizationIDInvite",
	CmdVerifySecurityPin:           "VerifySecurityPin",
	CmdUpdateTime:                  "UpdateTime",
	CmdUpdateAuthorization:         "UpdateAuthorization",
	CmdAuthorizationEntryCount:     "AuthorizationEntryCount",
	CmdRequestLogEntries:           "RequestLogEntries",
	CmdLogEntry:                    "LogEntry",
	CmdLogEntryCount:               "LogEntryCount",
	CmdEnableLogging:               "EnableLogging",
	CmdSetAdvancedConfig:           "SetAdvancedConfig",
	CmdRequestAdvancedConfig:       "RequestAdvancedConfig",
	CmdAdvancedConfig:              "AdvancedConfig",
	CmdAddTimeControlEntry:         "AddTimeControlEntry",
	CmdTimeControlEntryCount:       "TimeControlEntryCount",
	CmdRequestTimeControlEntries:   "RequestTimeControlEntries",
	CmdTimeControlEntry:            "TimeControlEntry",
	CmdRemoveTimeControlEntry:      "RemoveTimeControlEntry",
	CmdUpdateTimeControlEntry:      "UpdateTimeControlEntry",
	CmdAddKeypadCode:               "AddKeypadCode",
	CmdKeypadCodeID:                "KeypadCodeID",
	CmdRequestKeypadCodes:          "RequestKeypadCodes",
	CmdKeypadCodeCount:             "KeypadCodeCount",
	CmdKeypadCode:                  "KeypadCode",
	CmdUpdateKeypadCode:            "UpdateKeypadCode",
	CmdRemoveKeypadCode:            "RemoveKeypadCode",
	CmdKeypadAction:                "KeypadAction",
	CmdSimpleLockAction:            "SimpleLockAction",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(0x%04X)", uint16(c))
}
