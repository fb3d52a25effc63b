//go:build wasip1

// Command typox-plugin is a WebAssembly reactor exposing the engine to
// Typst over the wasm-minimal-protocol:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o typox.wasm ./cmd/typox-plugin
//
// Each exported function receives the byte lengths of its arguments, pulls
// the concatenated argument bytes from the host, runs one protocol call,
// hands the payload back, and returns 0 on success or 1 on failure.
package main

import (
	"io"
	"log/slog"
	"runtime"
	"unsafe"

	"github.com/roach88/typox/internal/engine"
)

//go:wasmimport typst_env wasm_minimal_protocol_write_args_to_buffer
func writeArgsToBuffer(ptr unsafe.Pointer)

//go:wasmimport typst_env wasm_minimal_protocol_send_result_to_host
func sendResultToHost(ptr unsafe.Pointer, n uint32)

// The plugin instance lives as long as the document compiles, so stores
// persist between calls.
var protocol = engine.NewProtocol(engine.New(
	engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
))

func call(op string, lens ...uint32) int32 {
	total := 0
	for _, n := range lens {
		total += int(n)
	}
	// One spare byte keeps the pointer valid when every argument is empty.
	buf := make([]byte, total+1)
	writeArgsToBuffer(unsafe.Pointer(&buf[0]))

	args := make([][]byte, len(lens))
	off := 0
	for i, n := range lens {
		args[i] = buf[off : off+int(n)]
		off += int(n)
	}

	out, status := protocol.Call(op, args...)
	send(out)
	runtime.KeepAlive(buf)
	return int32(status)
}

func send(out []byte) {
	if len(out) == 0 {
		var empty [1]byte
		sendResultToHost(unsafe.Pointer(&empty[0]), 0)
		return
	}
	sendResultToHost(unsafe.Pointer(unsafe.SliceData(out)), uint32(len(out)))
	runtime.KeepAlive(out)
}

//go:wasmexport load_turtle
func loadTurtle(storeLen, dataLen uint32) int32 {
	return call(engine.OpLoad, storeLen, dataLen)
}

//go:wasmexport load_ntriples
func loadNTriples(storeLen, dataLen uint32) int32 {
	return call(engine.OpLoadNTriples, storeLen, dataLen)
}

//go:wasmexport load_jsonld
func loadJSONLD(storeLen, dataLen uint32) int32 {
	return call(engine.OpLoadJSONLD, storeLen, dataLen)
}

//go:wasmexport load_rdf_xml
func loadRDFXML(storeLen, dataLen uint32) int32 {
	return call(engine.OpLoadRDFXML, storeLen, dataLen)
}

//go:wasmexport query
func query(storeLen, queryLen uint32) int32 {
	return call(engine.OpQuery, storeLen, queryLen)
}

//go:wasmexport clear_store
func clearStore(storeLen uint32) int32 {
	return call(engine.OpClear, storeLen)
}

//go:wasmexport get_store_size
func getStoreSize(storeLen uint32) int32 {
	return call(engine.OpStoreSize, storeLen)
}

//go:wasmexport list_stores
func listStores() int32 {
	return call(engine.OpListStores)
}

//go:wasmexport export_store
func exportStore(storeLen uint32) int32 {
	return call(engine.OpExport, storeLen)
}

func main() {}
