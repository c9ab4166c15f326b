package protocol

import "google.golang.org/protobuf/encoding/protowire"

// DeviceDetails describes the client device to the provider.
type DeviceDetails struct {
	DeviceFriendlyName string
	PlatformType       EAuthTokenPlatformType
	OsType             int32
	GamingDeviceType   uint32
	ClientCount        uint32
	MachineID          []byte
}

func (m *DeviceDetails) Marshal() []byte {
	var e encoder
	e.string(1, m.DeviceFriendlyName)
	e.int32(2, int32(m.PlatformType))
	e.int32(3, m.OsType)
	e.uint32(4, m.GamingDeviceType)
	e.uint32(5, m.ClientCount)
	e.bytes(6, m.MachineID)
	return e.b
}

func (m *DeviceDetails) Unmarshal(b []byte) error {
	*m = DeviceDetails{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.DeviceFriendlyName = d.string()
		case 2:
			m.PlatformType = EAuthTokenPlatformType(d.int32())
		case 3:
			m.OsType = d.int32()
		case 4:
			m.GamingDeviceType = d.uint32()
		case 5:
			m.ClientCount = d.uint32()
		case 6:
			m.MachineID = d.bytes()
		default:
			d.skip()
		}
	}
	return d.finish("DeviceDetails")
}

// AllowedConfirmation is one confirmation kind the provider accepts for a session.
type AllowedConfirmation struct {
	ConfirmationType  EAuthSessionGuardType
	AssociatedMessage string
}

func (m *AllowedConfirmation) Marshal() []byte {
	var e encoder
	e.int32(1, int32(m.ConfirmationType))
	e.string(2, m.AssociatedMessage)
	return e.b
}

func (m *AllowedConfirmation) Unmarshal(b []byte) error {
	*m = AllowedConfirmation{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.ConfirmationType = EAuthSessionGuardType(d.int32())
		case 2:
			m.AssociatedMessage = d.string()
		default:
			d.skip()
		}
	}
	return d.finish("AllowedConfirmation")
}

func appendConfirmations(e *encoder, num protowire.Number, confs []AllowedConfirmation) {
	for i := range confs {
		e.message(num, &confs[i])
	}
}

func consumeConfirmation(d *decoder, confs []AllowedConfirmation) []AllowedConfirmation {
	var conf AllowedConfirmation
	d.message(&conf)
	if d.err != nil {
		return confs
	}
	return append(confs, conf)
}

// GetPasswordRSAPublicKey

type GetPasswordRSAPublicKeyRequest struct {
	AccountName string
}

func (m *GetPasswordRSAPublicKeyRequest) ServiceMethod() ServiceMethod {
	return MethodGetPasswordRSAPublicKey
}

func (m *GetPasswordRSAPublicKeyRequest) Marshal() []byte {
	var e encoder
	e.string(1, m.AccountName)
	return e.b
}

func (m *GetPasswordRSAPublicKeyRequest) Unmarshal(b []byte) error {
	*m = GetPasswordRSAPublicKeyRequest{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.AccountName = d.string()
		default:
			d.skip()
		}
	}
	return d.finish("GetPasswordRSAPublicKeyRequest")
}

type GetPasswordRSAPublicKeyResponse struct {
	PublicKeyMod string
	PublicKeyExp string
	Timestamp    uint64
}

func (m *GetPasswordRSAPublicKeyResponse) Marshal() []byte {
	var e encoder
	e.string(1, m.PublicKeyMod)
	e.string(2, m.PublicKeyExp)
	e.uint64(3, m.Timestamp)
	return e.b
}

func (m *GetPasswordRSAPublicKeyResponse) Unmarshal(b []byte) error {
	*m = GetPasswordRSAPublicKeyResponse{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.PublicKeyMod = d.string()
		case 2:
			m.PublicKeyExp = d.string()
		case 3:
			m.Timestamp = d.uint64()
		default:
			d.skip()
		}
	}
	return d.finish("GetPasswordRSAPublicKeyResponse")
}

// BeginAuthSessionViaCredentials

type BeginAuthSessionViaCredentialsRequest struct {
	DeviceFriendlyName  string
	AccountName         string
	EncryptedPassword   string
	EncryptionTimestamp uint64
	RememberLogin       bool
	PlatformType        EAuthTokenPlatformType
	Persistence         ESessionPersistence
	WebsiteID           string
	DeviceDetails       *DeviceDetails
	GuardData           string
	Language            uint32
	QosLevel            int32
}

func (m *BeginAuthSessionViaCredentialsRequest) ServiceMethod() ServiceMethod {
	return MethodBeginAuthSessionViaCredentials
}

func (m *BeginAuthSessionViaCredentialsRequest) Marshal() []byte {
	var e encoder
	e.string(1, m.DeviceFriendlyName)
	e.string(2, m.AccountName)
	e.string(3, m.EncryptedPassword)
	e.uint64(4, m.EncryptionTimestamp)
	e.bool(5, m.RememberLogin)
	e.int32(6, int32(m.PlatformType))
	e.int32(7, int32(m.Persistence))
	e.string(8, m.WebsiteID)
	if m.DeviceDetails != nil {
		e.message(9, m.DeviceDetails)
	}
	e.string(10, m.GuardData)
	e.uint32(11, m.Language)
	e.int32(12, m.QosLevel)
	return e.b
}

func (m *BeginAuthSessionViaCredentialsRequest) Unmarshal(b []byte) error {
	*m = BeginAuthSessionViaCredentialsRequest{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.DeviceFriendlyName = d.string()
		case 2:
			m.AccountName = d.string()
		case 3:
			m.EncryptedPassword = d.string()
		case 4:
			m.EncryptionTimestamp = d.uint64()
		case 5:
			m.RememberLogin = d.bool()
		case 6:
			m.PlatformType = EAuthTokenPlatformType(d.int32())
		case 7:
			m.Persistence = ESessionPersistence(d.int32())
		case 8:
			m.WebsiteID = d.string()
		case 9:
			m.DeviceDetails = new(DeviceDetails)
			d.message(m.DeviceDetails)
		case 10:
			m.GuardData = d.string()
		case 11:
			m.Language = d.uint32()
		case 12:
			m.QosLevel = d.int32()
		default:
			d.skip()
		}
	}
	return d.finish("BeginAuthSessionViaCredentialsRequest")
}

type BeginAuthSessionViaCredentialsResponse struct {
	ClientID             uint64
	RequestID            []byte
	Interval             float32
	AllowedConfirmations []AllowedConfirmation
	SteamID              uint64
	WeakToken            string
	AgreementSessionURL  string
	ExtendedErrorMessage string
}

func (m *BeginAuthSessionViaCredentialsResponse) Marshal() []byte {
	var e encoder
	e.uint64(1, m.ClientID)
	e.bytes(2, m.RequestID)
	e.float32(3, m.Interval)
	appendConfirmations(&e, 4, m.AllowedConfirmations)
	e.uint64(5, m.SteamID)
	e.string(6, m.WeakToken)
	e.string(7, m.AgreementSessionURL)
	e.string(8, m.ExtendedErrorMessage)
	return e.b
}

func (m *BeginAuthSessionViaCredentialsResponse) Unmarshal(b []byte) error {
	*m = BeginAuthSessionViaCredentialsResponse{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.ClientID = d.uint64()
		case 2:
			m.RequestID = d.bytes()
		case 3:
			m.Interval = d.float32()
		case 4:
			m.AllowedConfirmations = consumeConfirmation(d, m.AllowedConfirmations)
		case 5:
			m.SteamID = d.uint64()
		case 6:
			m.WeakToken = d.string()
		case 7:
			m.AgreementSessionURL = d.string()
		case 8:
			m.ExtendedErrorMessage = d.string()
		default:
			d.skip()
		}
	}
	return d.finish("BeginAuthSessionViaCredentialsResponse")
}

// BeginAuthSessionViaQR

type BeginAuthSessionViaQRRequest struct {
	DeviceFriendlyName string
	PlatformType       EAuthTokenPlatformType
	DeviceDetails      *DeviceDetails
	WebsiteID          string
}

func (m *BeginAuthSessionViaQRRequest) ServiceMethod() ServiceMethod {
	return MethodBeginAuthSessionViaQR
}

func (m *BeginAuthSessionViaQRRequest) Marshal() []byte {
	var e encoder
	e.string(1, m.DeviceFriendlyName)
	e.int32(2, int32(m.PlatformType))
	if m.DeviceDetails != nil {
		e.message(3, m.DeviceDetails)
	}
	e.string(4, m.WebsiteID)
	return e.b
}

func (m *BeginAuthSessionViaQRRequest) Unmarshal(b []byte) error {
	*m = BeginAuthSessionViaQRRequest{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.DeviceFriendlyName = d.string()
		case 2:
			m.PlatformType = EAuthTokenPlatformType(d.int32())
		case 3:
			m.DeviceDetails = new(DeviceDetails)
			d.message(m.DeviceDetails)
		case 4:
			m.WebsiteID = d.string()
		default:
			d.skip()
		}
	}
	return d.finish("BeginAuthSessionViaQRRequest")
}

type BeginAuthSessionViaQRResponse struct {
	ClientID             uint64
	ChallengeURL         string
	RequestID            []byte
	Interval             float32
	AllowedConfirmations []AllowedConfirmation
	Version              int32
	// PushURL is the socket endpoint for status updates of this session, if the provider offers one.
	PushURL string
}

func (m *BeginAuthSessionViaQRResponse) Marshal() []byte {
	var e encoder
	e.uint64(1, m.ClientID)
	e.string(2, m.ChallengeURL)
	e.bytes(3, m.RequestID)
	e.float32(4, m.Interval)
	appendConfirmations(&e, 5, m.AllowedConfirmations)
	e.int32(6, m.Version)
	e.string(7, m.PushURL)
	return e.b
}

func (m *BeginAuthSessionViaQRResponse) Unmarshal(b []byte) error {
	*m = BeginAuthSessionViaQRResponse{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.ClientID = d.uint64()
		case 2:
			m.ChallengeURL = d.string()
		case 3:
			m.RequestID = d.bytes()
		case 4:
			m.Interval = d.float32()
		case 5:
			m.AllowedConfirmations = consumeConfirmation(d, m.AllowedConfirmations)
		case 6:
			m.Version = d.int32()
		case 7:
			m.PushURL = d.string()
		default:
			d.skip()
		}
	}
	return d.finish("BeginAuthSessionViaQRResponse")
}

// PollAuthSessionStatus

type PollAuthSessionStatusRequest struct {
	ClientID      uint64
	RequestID     []byte
	TokenToRevoke uint64
}

func (m *PollAuthSessionStatusRequest) ServiceMethod() ServiceMethod {
	return MethodPollAuthSessionStatus
}

func (m *PollAuthSessionStatusRequest) Marshal() []byte {
	var e encoder
	e.uint64(1, m.ClientID)
	e.bytes(2, m.RequestID)
	e.fixed64(3, m.TokenToRevoke)
	return e.b
}

func (m *PollAuthSessionStatusRequest) Unmarshal(b []byte) error {
	*m = PollAuthSessionStatusRequest{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.ClientID = d.uint64()
		case 2:
			m.RequestID = d.bytes()
		case 3:
			m.TokenToRevoke = d.fixed64()
		default:
			d.skip()
		}
	}
	return d.finish("PollAuthSessionStatusRequest")
}

type PollAuthSessionStatusResponse struct {
	NewClientID          uint64
	NewChallengeURL      string
	RefreshToken         string
	AccessToken          string
	HadRemoteInteraction bool
	AccountName          string
	NewGuardData         string
	AgreementSessionURL  string
	// RemainingConfirmations lists the confirmations still outstanding. It is
	// only ever non-empty; completion is signalled by RefreshToken.
	RemainingConfirmations []AllowedConfirmation
}

func (m *PollAuthSessionStatusResponse) Marshal() []byte {
	var e encoder
	e.uint64(1, m.NewClientID)
	e.string(2, m.NewChallengeURL)
	e.string(3, m.RefreshToken)
	e.string(4, m.AccessToken)
	e.bool(5, m.HadRemoteInteraction)
	e.string(6, m.AccountName)
	e.string(7, m.NewGuardData)
	e.string(8, m.AgreementSessionURL)
	appendConfirmations(&e, 9, m.RemainingConfirmations)
	return e.b
}

func (m *PollAuthSessionStatusResponse) Unmarshal(b []byte) error {
	*m = PollAuthSessionStatusResponse{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.NewClientID = d.uint64()
		case 2:
			m.NewChallengeURL = d.string()
		case 3:
			m.RefreshToken = d.string()
		case 4:
			m.AccessToken = d.string()
		case 5:
			m.HadRemoteInteraction = d.bool()
		case 6:
			m.AccountName = d.string()
		case 7:
			m.NewGuardData = d.string()
		case 8:
			m.AgreementSessionURL = d.string()
		case 9:
			m.RemainingConfirmations = consumeConfirmation(d, m.RemainingConfirmations)
		default:
			d.skip()
		}
	}
	return d.finish("PollAuthSessionStatusResponse")
}

// UpdateAuthSessionWithSteamGuardCode

type UpdateAuthSessionWithSteamGuardCodeRequest struct {
	ClientID uint64
	SteamID  uint64
	Code     string
	CodeType EAuthSessionGuardType
}

func (m *UpdateAuthSessionWithSteamGuardCodeRequest) ServiceMethod() ServiceMethod {
	return MethodUpdateAuthSessionWithSteamGuardCode
}

func (m *UpdateAuthSessionWithSteamGuardCodeRequest) Marshal() []byte {
	var e encoder
	e.uint64(1, m.ClientID)
	e.fixed64(2, m.SteamID)
	e.string(3, m.Code)
	e.int32(4, int32(m.CodeType))
	return e.b
}

func (m *UpdateAuthSessionWithSteamGuardCodeRequest) Unmarshal(b []byte) error {
	*m = UpdateAuthSessionWithSteamGuardCodeRequest{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.ClientID = d.uint64()
		case 2:
			m.SteamID = d.fixed64()
		case 3:
			m.Code = d.string()
		case 4:
			m.CodeType = EAuthSessionGuardType(d.int32())
		default:
			d.skip()
		}
	}
	return d.finish("UpdateAuthSessionWithSteamGuardCodeRequest")
}

type UpdateAuthSessionWithSteamGuardCodeResponse struct {
	AgreementSessionURL string
}

func (m *UpdateAuthSessionWithSteamGuardCodeResponse) Marshal() []byte {
	var e encoder
	e.string(7, m.AgreementSessionURL)
	return e.b
}

func (m *UpdateAuthSessionWithSteamGuardCodeResponse) Unmarshal(b []byte) error {
	*m = UpdateAuthSessionWithSteamGuardCodeResponse{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 7:
			m.AgreementSessionURL = d.string()
		default:
			d.skip()
		}
	}
	return d.finish("UpdateAuthSessionWithSteamGuardCodeResponse")
}

// GenerateAccessTokenForApp

type GenerateAccessTokenForAppRequest struct {
	RefreshToken string
	SteamID      uint64
	RenewalType  ETokenRenewalType
}

func (m *GenerateAccessTokenForAppRequest) ServiceMethod() ServiceMethod {
	return MethodGenerateAccessTokenForApp
}

func (m *GenerateAccessTokenForAppRequest) Marshal() []byte {
	var e encoder
	e.string(1, m.RefreshToken)
	e.fixed64(2, m.SteamID)
	e.int32(3, int32(m.RenewalType))
	return e.b
}

func (m *GenerateAccessTokenForAppRequest) Unmarshal(b []byte) error {
	*m = GenerateAccessTokenForAppRequest{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.RefreshToken = d.string()
		case 2:
			m.SteamID = d.fixed64()
		case 3:
			m.RenewalType = ETokenRenewalType(d.int32())
		default:
			d.skip()
		}
	}
	return d.finish("GenerateAccessTokenForAppRequest")
}

type GenerateAccessTokenForAppResponse struct {
	AccessToken  string
	RefreshToken string
}

func (m *GenerateAccessTokenForAppResponse) Marshal() []byte {
	var e encoder
	e.string(1, m.AccessToken)
	e.string(2, m.RefreshToken)
	return e.b
}

func (m *GenerateAccessTokenForAppResponse) Unmarshal(b []byte) error {
	*m = GenerateAccessTokenForAppResponse{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.AccessToken = d.string()
		case 2:
			m.RefreshToken = d.string()
		default:
			d.skip()
		}
	}
	return d.finish("GenerateAccessTokenForAppResponse")
}

// QueryTime

type QueryTimeRequest struct {
	SenderTime uint64
}

func (m *QueryTimeRequest) ServiceMethod() ServiceMethod {
	return MethodQueryTime
}

func (m *QueryTimeRequest) Marshal() []byte {
	var e encoder
	e.uint64(1, m.SenderTime)
	return e.b
}

func (m *QueryTimeRequest) Unmarshal(b []byte) error {
	*m = QueryTimeRequest{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.SenderTime = d.uint64()
		default:
			d.skip()
		}
	}
	return d.finish("QueryTimeRequest")
}

type QueryTimeResponse struct {
	ServerTime uint64
}

func (m *QueryTimeResponse) Marshal() []byte {
	var e encoder
	e.uint64(1, m.ServerTime)
	return e.b
}

func (m *QueryTimeResponse) Unmarshal(b []byte) error {
	*m = QueryTimeResponse{}
	d := newDecoder(b)
	for d.next() {
		switch d.num {
		case 1:
			m.ServerTime = d.uint64()
		default:
			d.skip()
		}
	}
	return d.finish("QueryTimeResponse")
}
