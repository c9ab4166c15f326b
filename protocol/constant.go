package protocol

import "strconv"

// EResult is the provider's result code, carried in the x-eresult header of
// request/response calls and in the header of push frames.
type EResult int32

const (
	EResultInvalid                    EResult = 0
	EResultOK                         EResult = 1
	EResultFail                       EResult = 2
	EResultNoConnection               EResult = 3
	EResultInvalidPassword            EResult = 5
	EResultInvalidParam               EResult = 8
	EResultFileNotFound               EResult = 9
	EResultBusy                       EResult = 10
	EResultInvalidState               EResult = 11
	EResultInvalidName                EResult = 12
	EResultAccessDenied               EResult = 15
	EResultTimeout                    EResult = 16
	EResultAccountNotFound            EResult = 18
	EResultServiceUnavailable         EResult = 20
	EResultRevoked                    EResult = 26
	EResultExpired                    EResult = 27
	EResultDuplicateRequest           EResult = 29
	EResultTryAnotherCM               EResult = 48
	EResultInvalidLoginAuthCode       EResult = 65
	EResultExpiredLoginAuthCode       EResult = 71
	EResultRateLimitExceeded          EResult = 84
	EResultAccountLoginDeniedThrottle EResult = 87
	EResultTwoFactorCodeMismatch      EResult = 88
)

var eresultNames = map[EResult]string{
	EResultInvalid:                    "Invalid",
	EResultOK:                         "OK",
	EResultFail:                       "Fail",
	EResultNoConnection:               "NoConnection",
	EResultInvalidPassword:            "InvalidPassword",
	EResultInvalidParam:               "InvalidParam",
	EResultFileNotFound:               "FileNotFound",
	EResultBusy:                       "Busy",
	EResultInvalidState:               "InvalidState",
	EResultInvalidName:                "InvalidName",
	EResultAccessDenied:               "AccessDenied",
	EResultTimeout:                    "Timeout",
	EResultAccountNotFound:            "AccountNotFound",
	EResultServiceUnavailable:         "ServiceUnavailable",
	EResultRevoked:                    "Revoked",
	EResultExpired:                    "Expired",
	EResultDuplicateRequest:           "DuplicateRequest",
	EResultTryAnotherCM:               "TryAnotherCM",
	EResultInvalidLoginAuthCode:       "InvalidLoginAuthCode",
	EResultExpiredLoginAuthCode:       "ExpiredLoginAuthCode",
	EResultRateLimitExceeded:          "RateLimitExceeded",
	EResultAccountLoginDeniedThrottle: "AccountLoginDeniedThrottle",
	EResultTwoFactorCodeMismatch:      "TwoFactorCodeMismatch",
}

func (r EResult) String() string {
	if name, ok := eresultNames[r]; ok {
		return name
	}
	return "EResult(" + strconv.Itoa(int(r)) + ")"
}

// IsTransient reports whether the provider is asking the client to try again
// later rather than rejecting the request.
func (r EResult) IsTransient() bool {
	switch r {
	case EResultNoConnection, EResultBusy, EResultTimeout, EResultServiceUnavailable, EResultTryAnotherCM:
		return true
	default:
		return false
	}
}

// EAuthTokenPlatformType selects which kind of client the tokens are minted for.
type EAuthTokenPlatformType int32

const (
	EAuthTokenPlatformTypeUnknown     EAuthTokenPlatformType = 0
	EAuthTokenPlatformTypeSteamClient EAuthTokenPlatformType = 1
	EAuthTokenPlatformTypeWebBrowser  EAuthTokenPlatformType = 2
	EAuthTokenPlatformTypeMobileApp   EAuthTokenPlatformType = 3
)

// EAuthSessionGuardType is a confirmation kind as the provider names it.
type EAuthSessionGuardType int32

const (
	EAuthSessionGuardTypeUnknown            EAuthSessionGuardType = 0
	EAuthSessionGuardTypeNone               EAuthSessionGuardType = 1
	EAuthSessionGuardTypeEmailCode          EAuthSessionGuardType = 2
	EAuthSessionGuardTypeDeviceCode         EAuthSessionGuardType = 3
	EAuthSessionGuardTypeDeviceConfirmation EAuthSessionGuardType = 4
	EAuthSessionGuardTypeEmailConfirmation  EAuthSessionGuardType = 5
	EAuthSessionGuardTypeMachineToken       EAuthSessionGuardType = 6
	EAuthSessionGuardTypeLegacyMachineAuth  EAuthSessionGuardType = 7
)

// ESessionPersistence controls whether the provider issues a long-lived refresh token.
type ESessionPersistence int32

const (
	ESessionPersistenceInvalid    ESessionPersistence = -1
	ESessionPersistenceEphemeral  ESessionPersistence = 0
	ESessionPersistencePersistent ESessionPersistence = 1
)

// ETokenRenewalType controls whether GenerateAccessTokenForApp may rotate the refresh token.
type ETokenRenewalType int32

const (
	ETokenRenewalTypeNone  ETokenRenewalType = 0
	ETokenRenewalTypeAllow ETokenRenewalType = 1
)

// EMsg identifies the kind of a push socket frame.
type EMsg uint32

const (
	EMsgMulti                                EMsg = 1
	EMsgServiceMethod                        EMsg = 146
	EMsgServiceMethodResponse                EMsg = 147
	EMsgClientLogOnResponse                  EMsg = 751
	EMsgServiceMethodCallFromClientNonAuthed EMsg = 9804
)

// ProtoMask marks an EMsg whose header is a protobuf header.
const ProtoMask uint32 = 0x80000000
