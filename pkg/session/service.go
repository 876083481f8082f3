package session

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/status-im/status-identity-go/internal"
	"github.com/status-im/status-identity-go/pkg/mnemonic"
	"github.com/status-im/status-identity-go/pkg/pairing"
	"github.com/status-im/status-identity-go/pkg/store"
	"github.com/status-im/status-identity-go/pkg/utils"
	"github.com/status-im/status-identity-go/pkg/wallet"
)

const defaultQRSize = 256

var (
	errIdentityServiceNotStarted     = errors.New("identity service not started")
	errIdentityServiceAlreadyStarted = errors.New("identity service already started")
)

// IdentityService exposes IdentityContext over JSON-RPC. Wallets leave the
// service redacted.
type IdentityService struct {
	mu       sync.RWMutex
	identity *internal.IdentityContext
}

// NewIdentityService wraps an already built context. Pass nil to have the
// context built later by the Start call.
func NewIdentityService(identity *internal.IdentityContext) *IdentityService {
	return &IdentityService{identity: identity}
}

func (s *IdentityService) context() (*internal.IdentityContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil, errIdentityServiceNotStarted
	}
	return s.identity, nil
}

type StartRequest struct {
	StoreBackend    string `json:"storeBackend" validate:"omitempty,oneof=memory file bolt sqlite"`
	StorePath       string `json:"storePath" validate:"required_unless=StoreBackend memory"`
	StorePassphrase string `json:"storePassphrase"`
	ChainType       string `json:"chainType" validate:"omitempty,chaintype"`
	LogEnabled      bool   `json:"logEnabled"`
	LogFilePath     string `json:"logFilePath"`
}

func (s *IdentityService) Start(args *StartRequest, reply *struct{}) error {
	if err := validateRequest(args); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != nil {
		return errIdentityServiceAlreadyStarted
	}

	kv, err := store.Open(store.Backend(args.StoreBackend), args.StorePath, args.StorePassphrase)
	if err != nil {
		return err
	}

	opts := []internal.Option{internal.WithChainType(wallet.ChainType(args.ChainType))}
	if args.LogEnabled {
		opts = append(opts, internal.WithLogging(true, args.LogFilePath))
	}

	identity, err := internal.NewIdentityContext(kv, opts...)
	if err != nil {
		_ = kv.Close()
		return err
	}
	s.identity = identity
	return nil
}

func (s *IdentityService) Stop(args *struct{}, reply *struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	err := s.identity.Stop()
	s.identity = nil
	return err
}

type WalletResponse struct {
	Wallet wallet.Wallet `json:"wallet"`
}

type InitializeLocalRequest struct {
	ChainType string `json:"chainType" validate:"omitempty,chaintype"`
}

// InitializeLocal registers the local device on first run and returns its wallet.
func (s *IdentityService) InitializeLocal(args *InitializeLocalRequest, reply *WalletResponse) error {
	identity, err := s.context()
	if err != nil {
		return err
	}
	if err := validateRequest(args); err != nil {
		return err
	}

	w, err := identity.InitializeLocal(wallet.ChainType(args.ChainType))
	if err != nil {
		return err
	}
	reply.Wallet = w.Redacted()
	return nil
}

type GetActiveDeviceResponse struct {
	DeviceID string `json:"deviceId"`
}

func (s *IdentityService) GetActiveDevice(args *struct{}, reply *GetActiveDeviceResponse) error {
	identity, err := s.context()
	if err != nil {
		return err
	}

	reply.DeviceID, err = identity.ActiveDeviceID()
	return err
}

type GenerateWalletRequest struct {
	DeviceID  string `json:"deviceId" validate:"required,deviceid"`
	ChainType string `json:"chainType" validate:"omitempty,chaintype"`
}

func (s *IdentityService) GenerateWallet(args *GenerateWalletRequest, reply *WalletResponse) error {
	identity, err := s.context()
	if err != nil {
		return err
	}
	if err := validateRequest(args); err != nil {
		return err
	}

	w, err := identity.GenerateWallet(args.DeviceID, wallet.ChainType(args.ChainType))
	if err != nil {
		return err
	}
	reply.Wallet = w.Redacted()
	return nil
}

type ValidateDeviceIDRequest struct {
	DeviceID string `json:"deviceId"`
}

type ValidateDeviceIDResponse struct {
	Valid bool `json:"valid"`
}

func (s *IdentityService) ValidateDeviceID(args *ValidateDeviceIDRequest, reply *ValidateDeviceIDResponse) error {
	identity, err := s.context()
	if err != nil {
		return err
	}

	reply.Valid = identity.ValidateDeviceID(args.DeviceID)
	return nil
}

type DecryptAndGenerateMnemonicRequest struct {
	Frame     string `json:"frame" validate:"required"`
	PairingID string `json:"pairingId" validate:"omitempty,deviceid"`
	ChainType string `json:"chainType" validate:"omitempty,chaintype"`
}

type DecryptAndGenerateMnemonicResponse struct {
	Wallet     wallet.Wallet        `json:"wallet"`
	Words      []pairing.WordResult `json:"words"`
	Obfuscated bool                 `json:"obfuscated"`
}

func (s *IdentityService) DecryptAndGenerateMnemonic(args *DecryptAndGenerateMnemonicRequest, reply *DecryptAndGenerateMnemonicResponse) error {
	identity, err := s.context()
	if err != nil {
		return err
	}
	if err := validateRequest(args); err != nil {
		return err
	}

	res, err := identity.DecryptAndGenerateMnemonic(args.Frame, args.PairingID, wallet.ChainType(args.ChainType))
	if err != nil {
		return err
	}
	reply.Wallet = res.Wallet.Redacted()
	reply.Words = res.Words
	reply.Obfuscated = res.Obfuscated
	return nil
}

type RegenerateWalletRequest struct {
	DeviceID  string `json:"deviceId" validate:"required,deviceid"`
	Confirmed bool   `json:"confirmed"`
}

func (s *IdentityService) RegenerateWallet(args *RegenerateWalletRequest, reply *WalletResponse) error {
	identity, err := s.context()
	if err != nil {
		return err
	}
	if err := validateRequest(args); err != nil {
		return err
	}

	w, err := identity.RegenerateWallet(args.DeviceID, args.Confirmed)
	if err != nil {
		return err
	}
	reply.Wallet = w.Redacted()
	return nil
}

type RevealMnemonicRequest struct {
	DeviceID  string `json:"deviceId" validate:"required,deviceid"`
	Confirmed bool   `json:"confirmed"`
}

type RevealMnemonicResponse struct {
	DeviceID string `json:"deviceId"`
	Mnemonic string `json:"mnemonic"`
}

// RevealMnemonic returns only the recovery phrase; the private key stays in
// the store.
func (s *IdentityService) RevealMnemonic(args *RevealMnemonicRequest, reply *RevealMnemonicResponse) error {
	identity, err := s.context()
	if err != nil {
		return err
	}
	if err := validateRequest(args); err != nil {
		return err
	}

	phrase, err := identity.RevealMnemonic(args.DeviceID, args.Confirmed)
	if err != nil {
		return err
	}
	reply.DeviceID = args.DeviceID
	reply.Mnemonic = phrase
	return nil
}

type DeviceRequest struct {
	DeviceID string `json:"deviceId" validate:"required,deviceid"`
}

func (s *IdentityService) CheckWalletStatus(args *DeviceRequest, reply *internal.WalletStatus) error {
	identity, err := s.context()
	if err != nil {
		return err
	}
	if err := validateRequest(args); err != nil {
		return err
	}

	status, err := identity.CheckWalletStatus(args.DeviceID)
	if err != nil {
		return err
	}
	*reply = *status
	return nil
}

func (s *IdentityService) DeleteWallet(args *DeviceRequest, reply *struct{}) error {
	identity, err := s.context()
	if err != nil {
		return err
	}
	if err := validateRequest(args); err != nil {
		return err
	}

	return identity.DeleteWallet(args.DeviceID)
}

type PreviewWalletRequest struct {
	Mnemonic  string `json:"mnemonic" validate:"required,mnemonic"`
	ChainType string `json:"chainType" validate:"omitempty,chaintype"`
}

// PreviewWallet derives the public part of a wallet without storing anything.
func (s *IdentityService) PreviewWallet(args *PreviewWalletRequest, reply *WalletResponse) error {
	if err := validateRequest(args); err != nil {
		return err
	}

	m, err := mnemonic.Parse(args.Mnemonic)
	if err != nil {
		return err
	}
	w, err := wallet.Derive(m, wallet.ChainType(args.ChainType))
	if err != nil {
		return err
	}
	reply.Wallet = w.Redacted()
	return nil
}

type SignMessageRequest struct {
	DeviceID string          `json:"deviceId" validate:"required,deviceid"`
	Message  utils.HexString `json:"message" validate:"required"`
}

type SignMessageResponse struct {
	Address   string           `json:"address"`
	PublicKey string           `json:"publicKey"`
	ChainType wallet.ChainType `json:"chainType"`
	Signature utils.HexString  `json:"signature"`
}

func (s *IdentityService) SignMessage(args *SignMessageRequest, reply *SignMessageResponse) error {
	identity, err := s.context()
	if err != nil {
		return err
	}
	if err := validateRequest(args); err != nil {
		return err
	}

	signed, err := identity.SignMessage(args.DeviceID, args.Message)
	if err != nil {
		return err
	}
	reply.Address = signed.Address
	reply.PublicKey = signed.PublicKey
	reply.ChainType = signed.ChainType
	reply.Signature = signed.Signature
	return nil
}

type VerifyMessageRequest struct {
	ChainType string          `json:"chainType" validate:"omitempty,chaintype"`
	PublicKey string          `json:"publicKey" validate:"required"`
	Message   utils.HexString `json:"message" validate:"required"`
	Signature utils.HexString `json:"signature" validate:"required"`
}

type VerifyMessageResponse struct {
	Valid bool `json:"valid"`
}

func (s *IdentityService) VerifyMessage(args *VerifyMessageRequest, reply *VerifyMessageResponse) error {
	identity, err := s.context()
	if err != nil {
		return err
	}
	if err := validateRequest(args); err != nil {
		return err
	}

	reply.Valid, err = identity.VerifyMessage(wallet.ChainType(args.ChainType), args.PublicKey, args.Message, args.Signature)
	return err
}

type AddressQRRequest struct {
	Address string `json:"address" validate:"required"`
	Size    int    `json:"size" validate:"omitempty,min=64,max=2048"`
}

type AddressQRResponse struct {
	PNG []byte `json:"png"`
}

func (s *IdentityService) AddressQR(args *AddressQRRequest, reply *AddressQRResponse) error {
	if err := validateRequest(args); err != nil {
		return err
	}

	size := args.Size
	if size == 0 {
		size = defaultQRSize
	}

	var err error
	reply.PNG, err = wallet.AddressQR(args.Address, size)
	return err
}
