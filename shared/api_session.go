package main

import "C"
import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/status-im/status-identity-go/pkg/session"
)

var (
	rpcLock         sync.Mutex
	globalRPCServer *rpc.Server
)

func marshalError(err error) *C.char {
	response := struct {
		Error string `json:"error"`
	}{
		Error: "",
	}
	if err != nil {
		response.Error = err.Error()
	}
	responseBytes, _ := json.Marshal(response)
	return C.CString(string(responseBytes))
}

func logPanic() {
	err := recover()
	if err != nil {
		fmt.Printf("Panic: %v\n", err)
	}
}

//export IdentityInitializeRPC
func IdentityInitializeRPC() *C.char {
	defer logPanic()

	rpcLock.Lock()
	defer rpcLock.Unlock()

	if globalRPCServer != nil {
		return marshalError(nil)
	}

	rpcServer, err := session.CreateRPCServer(session.NewIdentityService(nil))
	if err != nil {
		return marshalError(err)
	}
	globalRPCServer = rpcServer

	zap.L().Info("IdentityInitializeRPC - ok")
	return marshalError(nil)
}

// IdentityCallRPC runs one JSON-RPC request through the in-process server. The
// payload is never logged because requests may carry a store passphrase.
//
//export IdentityCallRPC
func IdentityCallRPC(payload *C.char) *C.char {
	defer logPanic()

	rpcLock.Lock()
	rpcServer := globalRPCServer
	rpcLock.Unlock()

	if rpcServer == nil {
		return marshalError(errors.New("RPC server not initialized"))
	}

	payloadBytes := []byte(C.GoString(payload))

	req := httptest.NewRequest("POST", "/rpc", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	rpcServer.ServeHTTP(rr, req)

	resp := rr.Result()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return marshalError(errors.Wrap(err, "internal error reading response body"))
	}

	zap.L().Debug("IdentityCallRPC returning", zap.String("status", resp.Status))

	return C.CString(string(body))
}
