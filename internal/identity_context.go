package internal

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/status-im/status-identity-go/pkg/fingerprint"
	"github.com/status-im/status-identity-go/pkg/mnemonic"
	"github.com/status-im/status-identity-go/pkg/pairing"
	"github.com/status-im/status-identity-go/pkg/store"
	"github.com/status-im/status-identity-go/pkg/wallet"
)

// IdentityContext owns the wallet record of every device id. Records are
// generated once and reused; only an explicit, confirmed regeneration
// replaces one. Writers to the same device id are serialized.
type IdentityContext struct {
	store   store.KV
	logger  *zap.Logger
	chain   wallet.ChainType
	now     func() time.Time
	collect func() fingerprint.Fingerprint
	publish func(typ string, event interface{})

	mu     sync.Mutex
	locks  map[string]*deviceLock
	status map[string]*Status
}

// deviceLock serializes writers of one device id. refs counts the callers
// holding or waiting on it; the entry is dropped when it reaches zero.
type deviceLock struct {
	sync.Mutex
	refs int
}

func NewIdentityContext(kv store.KV, opts ...Option) (*IdentityContext, error) {
	if kv == nil {
		return nil, errors.New("identity store required")
	}

	kc := &IdentityContext{
		store:  kv,
		logger: zap.L().Named("identity"),
		locks:  make(map[string]*deviceLock),
		status: make(map[string]*Status),
	}

	for _, opt := range append(defaultOptions(), opts...) {
		opt(kc)
	}

	chain, err := wallet.ParseChainType(string(kc.chain))
	if err != nil {
		return nil, err
	}
	kc.chain = chain

	return kc, nil
}

func (kc *IdentityContext) acquire(deviceID string) *deviceLock {
	kc.mu.Lock()
	defer kc.mu.Unlock()

	l, ok := kc.locks[deviceID]
	if !ok {
		l = &deviceLock{}
		kc.locks[deviceID] = l
	}
	l.refs++
	return l
}

func (kc *IdentityContext) releaseRef(deviceID string, l *deviceLock) {
	kc.mu.Lock()
	defer kc.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(kc.locks, deviceID)
	}
}

// lockDevice blocks until the caller owns deviceID and returns the release.
func (kc *IdentityContext) lockDevice(deviceID string) func() {
	l := kc.acquire(deviceID)
	l.Lock()
	return func() {
		l.Unlock()
		kc.releaseRef(deviceID, l)
	}
}

// tryLockDevice is lockDevice without waiting.
func (kc *IdentityContext) tryLockDevice(deviceID string) (func(), bool) {
	l := kc.acquire(deviceID)
	if !l.TryLock() {
		kc.releaseRef(deviceID, l)
		return nil, false
	}
	return func() {
		l.Unlock()
		kc.releaseRef(deviceID, l)
	}, true
}

func (kc *IdentityContext) setState(deviceID string, state State, address string) {
	kc.mu.Lock()
	s, ok := kc.status[deviceID]
	if !ok {
		s = NewStatus(deviceID)
		kc.status[deviceID] = s
	}
	s.State = state
	s.Address = address
	snapshot := *s
	if state == Uninitialized {
		delete(kc.status, deviceID)
	}
	kc.mu.Unlock()

	kc.logger.Debug("status changed", zap.String("deviceId", deviceID), zap.String("state", string(state)))
	kc.publish(StatusChangedSignal, snapshot)
}

// State returns the last known lifecycle state of deviceID.
func (kc *IdentityContext) State(deviceID string) State {
	kc.mu.Lock()
	defer kc.mu.Unlock()

	if s, ok := kc.status[deviceID]; ok {
		return s.State
	}
	return Uninitialized
}

func (kc *IdentityContext) resolveChain(chain wallet.ChainType) (wallet.ChainType, error) {
	if chain == "" {
		return kc.chain, nil
	}
	return wallet.ParseChainType(string(chain))
}

// ValidateDeviceID reports whether s is a well-formed device id.
func (kc *IdentityContext) ValidateDeviceID(s string) bool {
	return fingerprint.IsValidDeviceID(s)
}

// GenerateWallet returns the stored wallet of deviceID, deriving and
// persisting it from the device id on first use. An empty chain accepts
// whatever chain the stored record uses and falls back to the configured
// chain for new records; an explicit chain that differs from the stored one
// fails with ErrChainMismatch.
func (kc *IdentityContext) GenerateWallet(deviceID string, chain wallet.ChainType) (*wallet.Wallet, error) {
	if err := fingerprint.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	explicit := chain != ""
	chain, err := kc.resolveChain(chain)
	if err != nil {
		return nil, err
	}

	unlock := kc.lockDevice(deviceID)
	defer unlock()

	return kc.ensureWallet(deviceID, chain, explicit)
}

// ensureWallet must be called with the device lock held. A corrupt record is
// removed and regenerated once; if the fresh record does not read back
// complete the failure is fatal.
func (kc *IdentityContext) ensureWallet(deviceID string, chain wallet.ChainType, explicit bool) (*wallet.Wallet, error) {
	regenerated := false
	for {
		w, err := kc.load(deviceID)
		switch {
		case err == nil:
			if explicit && w.ChainType != chain {
				return nil, errors.Wrapf(ErrChainMismatch, "stored %s, requested %s", w.ChainType, chain)
			}
			kc.setState(deviceID, Ready, w.Address)
			return w, nil

		case errors.Is(err, store.ErrNotFound):
			return kc.generate(deviceID, chain, fingerprint.Entropy(deviceID), wallet.SourceFingerprint, nil)

		case errors.Is(err, ErrCorruptStoredRecord):
			if regenerated {
				kc.logger.Error("regenerated record is still corrupt", zap.String("deviceId", deviceID), zap.Error(err))
				kc.setState(deviceID, Failed, "")
				return nil, err
			}
			kc.logger.Warn("removing corrupt wallet record", zap.String("deviceId", deviceID), zap.Error(err))
			if err := kc.remove(deviceID); err != nil {
				return nil, err
			}
			if _, err := kc.generate(deviceID, chain, fingerprint.Entropy(deviceID), wallet.SourceFingerprint, nil); err != nil {
				return nil, err
			}
			regenerated = true

		default:
			kc.setState(deviceID, Failed, "")
			return nil, err
		}
	}
}

// generate derives a wallet from entropy and persists it. prev, when set,
// contributes the creation time and companion link of the replaced record.
func (kc *IdentityContext) generate(deviceID string, chain wallet.ChainType, entropy mnemonic.Entropy, source wallet.Source, prev *wallet.Wallet) (*wallet.Wallet, error) {
	kc.setState(deviceID, Generating, "")

	m := mnemonic.FromEntropy(entropy)
	clear(entropy[:])

	w, err := wallet.Derive(m, chain)
	if err != nil {
		kc.logger.Error("failed to derive wallet",
			zap.String("deviceId", deviceID),
			zap.String("chainType", string(chain)),
			zap.Error(err))
		kc.setState(deviceID, Failed, "")
		return nil, err
	}

	now := kc.now().UTC()
	w.DeviceID = deviceID
	w.Source = source
	w.CreatedAt = now
	w.UpdatedAt = now
	if prev != nil {
		w.CreatedAt = prev.CreatedAt
		w.CompanionOf = prev.CompanionOf
	}

	if err := kc.save(w); err != nil {
		kc.setState(deviceID, Failed, "")
		return nil, err
	}

	kc.logger.Info("wallet generated", zap.Object("wallet", w), zap.Int("words", m.Len()))
	kc.setState(deviceID, Ready, w.Address)
	return w, nil
}

func (kc *IdentityContext) load(deviceID string) (*wallet.Wallet, error) {
	b, err := kc.store.Get(deviceID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, kc.persistenceError("get", deviceID, err)
	}

	var w wallet.Wallet
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, errors.Wrap(ErrCorruptStoredRecord, "record is not valid JSON")
	}
	if err := w.Complete(); err != nil {
		return nil, errors.Wrap(ErrCorruptStoredRecord, err.Error())
	}
	if w.DeviceID != deviceID {
		return nil, errors.Wrapf(ErrCorruptStoredRecord, "record belongs to %q", w.DeviceID)
	}
	return &w, nil
}

func (kc *IdentityContext) save(w *wallet.Wallet) error {
	b, err := json.Marshal(w)
	if err != nil {
		return kc.persistenceError("encode", w.DeviceID, err)
	}
	if err := kc.store.Set(w.DeviceID, b); err != nil {
		return kc.persistenceError("set", w.DeviceID, err)
	}
	return nil
}

func (kc *IdentityContext) remove(deviceID string) error {
	if err := kc.store.Remove(deviceID); err != nil {
		return kc.persistenceError("remove", deviceID, err)
	}
	return nil
}

func (kc *IdentityContext) persistenceError(op, key string, err error) error {
	kc.logger.Error("store operation failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
	return &PersistenceError{Op: op, Key: key, Err: err}
}

// ActiveDeviceID returns the id recorded for the local device.
func (kc *IdentityContext) ActiveDeviceID() (string, error) {
	b, err := kc.store.Get(ActiveDeviceKey)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoActiveDevice
	}
	if err != nil {
		return "", kc.persistenceError("get", ActiveDeviceKey, err)
	}

	var id string
	if err := json.Unmarshal(b, &id); err != nil || !fingerprint.IsValidDeviceID(id) {
		return "", errors.Wrap(ErrCorruptStoredRecord, "active device id")
	}
	return id, nil
}

// InitializeLocal resolves the local device id, deriving it from the
// environment fingerprint on first run, and ensures its wallet exists.
func (kc *IdentityContext) InitializeLocal(chain wallet.ChainType) (*wallet.Wallet, error) {
	id, err := kc.ActiveDeviceID()
	if errors.Is(err, ErrNoActiveDevice) || errors.Is(err, ErrCorruptStoredRecord) {
		id = fingerprint.MustDeriveDeviceID(kc.collect())

		b, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		if err := kc.store.Set(ActiveDeviceKey, b); err != nil {
			return nil, kc.persistenceError("set", ActiveDeviceKey, err)
		}
		kc.logger.Info("active device registered", zap.String("deviceId", id))
	} else if err != nil {
		return nil, err
	}

	return kc.GenerateWallet(id, chain)
}

// DecryptAndGenerateMnemonic decodes a pairing frame and stores the wallet of
// the recovered mnemonic as a companion of the local device. pairingID names
// the companion record; when empty it is derived from the mnemonic.
func (kc *IdentityContext) DecryptAndGenerateMnemonic(raw, pairingID string, chain wallet.ChainType) (*PairingResult, error) {
	chain, err := kc.resolveChain(chain)
	if err != nil {
		return nil, err
	}

	frame, err := pairing.Decode(raw)
	if err != nil {
		kc.logger.Info("pairing frame rejected", zap.Error(err))
		return nil, err
	}

	if pairingID == "" {
		pairingID = fingerprint.CompanionID(frame.Mnemonic)
	}
	if err := fingerprint.ValidateDeviceID(pairingID); err != nil {
		return nil, err
	}

	local, err := kc.ActiveDeviceID()
	if err != nil && !errors.Is(err, ErrNoActiveDevice) {
		return nil, err
	}
	if local == pairingID {
		return nil, ErrCompanionCollision
	}

	unlock := kc.lockDevice(pairingID)
	defer unlock()

	prev, err := kc.load(pairingID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		prev = nil
	case errors.Is(err, ErrCorruptStoredRecord):
		kc.logger.Warn("pairing over corrupt record", zap.String("deviceId", pairingID), zap.Error(err))
		prev = nil
	default:
		return nil, err
	}

	w, err := wallet.Derive(frame.Mnemonic, chain)
	if err != nil {
		kc.logger.Error("failed to derive paired wallet", zap.String("deviceId", pairingID), zap.Error(err))
		kc.setState(pairingID, Failed, "")
		return nil, err
	}

	// Only the same phrase paired again may replace an existing record.
	if prev != nil && (prev.Source != wallet.SourcePairing || prev.Address != w.Address) {
		kc.logger.Warn("pairing rejected, device already has a wallet",
			zap.String("deviceId", pairingID),
			zap.String("source", string(prev.Source)))
		return nil, errors.Wrapf(ErrWalletExists, "device %s", pairingID)
	}

	kc.setState(pairingID, Generating, "")
	now := kc.now().UTC()
	w.DeviceID = pairingID
	w.Source = wallet.SourcePairing
	w.CompanionOf = local
	w.CreatedAt = now
	w.UpdatedAt = now
	if prev != nil {
		w.CreatedAt = prev.CreatedAt
	}

	if err := kc.save(w); err != nil {
		kc.setState(pairingID, Failed, "")
		return nil, err
	}

	kc.logger.Info("companion wallet paired",
		zap.Object("wallet", w),
		zap.Bool("obfuscated", frame.Obfuscated()))
	kc.setState(pairingID, Ready, w.Address)
	kc.publish(PairedSignal, w.Redacted())

	return &PairingResult{Wallet: w, Words: frame.Words, Obfuscated: frame.Obfuscated()}, nil
}

// RegenerateWallet replaces the wallet of deviceID with one derived from fresh
// random entropy. The caller must have obtained the user's confirmation. A
// request arriving while another write to the same id is in flight is rejected.
func (kc *IdentityContext) RegenerateWallet(deviceID string, confirmed bool) (*wallet.Wallet, error) {
	if err := fingerprint.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, ErrRegenerationNotConfirmed
	}

	unlock, ok := kc.tryLockDevice(deviceID)
	if !ok {
		return nil, ErrRegenerationInProgress
	}
	defer unlock()

	chain := kc.chain
	prev, err := kc.load(deviceID)
	switch {
	case err == nil:
		chain = prev.ChainType
	case errors.Is(err, store.ErrNotFound):
		prev = nil
	case errors.Is(err, ErrCorruptStoredRecord):
		kc.logger.Warn("regenerating over corrupt record", zap.String("deviceId", deviceID), zap.Error(err))
		prev = nil
	default:
		return nil, err
	}

	entropy, err := mnemonic.NewRandomEntropy()
	if err != nil {
		return nil, &wallet.DerivationError{Chain: chain, Op: "entropy", Err: err}
	}

	w, err := kc.generate(deviceID, chain, entropy, wallet.SourceRandom, prev)
	if err != nil {
		return nil, err
	}
	kc.logger.Info("wallet regenerated", zap.String("deviceId", deviceID))
	return w, nil
}

// CheckWalletStatus never exposes secret material. A corrupt record reports
// as not generated.
func (kc *IdentityContext) CheckWalletStatus(deviceID string) (*WalletStatus, error) {
	if err := fingerprint.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}

	w, err := kc.load(deviceID)
	switch {
	case err == nil:
		return &WalletStatus{
			IsGenerated: true,
			Address:     w.Address,
			PublicKey:   w.PublicKey,
			ChainType:   w.ChainType,
			State:       Ready,
		}, nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrCorruptStoredRecord):
		return &WalletStatus{State: kc.State(deviceID)}, nil
	default:
		return nil, err
	}
}

// DeleteWallet destroys the record of deviceID and forgets its status.
func (kc *IdentityContext) DeleteWallet(deviceID string) error {
	if err := fingerprint.ValidateDeviceID(deviceID); err != nil {
		return err
	}

	unlock := kc.lockDevice(deviceID)
	defer unlock()

	if err := kc.remove(deviceID); err != nil {
		return err
	}
	kc.logger.Info("wallet deleted", zap.String("deviceId", deviceID))
	kc.setState(deviceID, Uninitialized, "")
	return nil
}

// RevealMnemonic returns the recovery phrase stored for deviceID. The
// caller must have obtained the user's confirmation. The phrase is never
// logged.
func (kc *IdentityContext) RevealMnemonic(deviceID string, confirmed bool) (string, error) {
	if err := fingerprint.ValidateDeviceID(deviceID); err != nil {
		return "", err
	}
	if !confirmed {
		return "", ErrRevealNotConfirmed
	}

	w, err := kc.load(deviceID)
	if err != nil {
		return "", err
	}
	kc.logger.Info("mnemonic revealed", zap.String("deviceId", deviceID))
	return w.Mnemonic, nil
}

// SignMessage signs msg with the stored key of deviceID. The key never leaves
// this context.
func (kc *IdentityContext) SignMessage(deviceID string, msg []byte) (*SignedMessage, error) {
	if err := fingerprint.ValidateDeviceID(deviceID); err != nil {
		return nil, err
	}

	w, err := kc.load(deviceID)
	if err != nil {
		return nil, err
	}

	sig, err := wallet.Sign(w, msg)
	if err != nil {
		kc.logger.Error("failed to sign message", zap.String("deviceId", deviceID), zap.Error(err))
		return nil, err
	}

	return &SignedMessage{
		Address:   w.Address,
		PublicKey: w.PublicKey,
		ChainType: w.ChainType,
		Signature: sig,
	}, nil
}

// VerifyMessage checks a signature against a public key of the given chain.
func (kc *IdentityContext) VerifyMessage(chain wallet.ChainType, publicKey string, msg, sig []byte) (bool, error) {
	chain, err := kc.resolveChain(chain)
	if err != nil {
		return false, err
	}
	return wallet.Verify(chain, publicKey, msg, sig)
}

func (kc *IdentityContext) Stop() error {
	return kc.store.Close()
}
