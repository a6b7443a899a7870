//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/vhs-sync/timecode/pkg/vhs"
	"github.com/vhs-sync/timecode/pkg/vhs/bitcodec"
	"github.com/vhs-sync/timecode/pkg/vhs/framecodec"
)

// Error codes returned to JavaScript.
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorNoDecision
)

// computeChecksum exposes framecodec.ComputeChecksum.
// Returns: {error: number, data: number}
func computeChecksum(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "expected one numeric argument: frameID")
	}
	frameID := uint32(args[0].Int())
	return makeDataResponse(int(framecodec.ComputeChecksum(frameID)))
}

// encodeBit exposes bitcodec.EncodeBit.
// Args: symbol (0|1), sampleCount, sampleRate, startPhase
// Returns: {error: number, data: {samples: Array, endPhase: number}}
func encodeBit(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return makeErrorResponse(ErrorInvalidArgs, "expected 4 arguments: symbol, sampleCount, sampleRate, startPhase")
	}
	symbol := vhs.BitSymbol(args[0].Int())
	sampleCount := args[1].Int()
	sampleRate := args[2].Int()
	startPhase := args[3].Float()

	samples, endPhase := bitcodec.EncodeBit(symbol, sampleCount, sampleRate, startPhase)

	samplesJS := js.Global().Get("Array").New(len(samples))
	for i, s := range samples {
		samplesJS.SetIndex(i, s)
	}

	result := js.Global().Get("Object").New()
	result.Set("samples", samplesJS)
	result.Set("endPhase", endPhase)
	return makeObjectResponse(result)
}

// decodeBit exposes bitcodec.DecodeBit.
// Args: samples (Array), sampleRate
// Returns: {error: number, data: {symbol: number, confidence: number} | string}
func decodeBit(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || args[0].Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "expected 2 arguments: samples array, sampleRate")
	}
	samplesJS := args[0]
	sampleRate := args[1].Int()

	n := samplesJS.Length()
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = samplesJS.Index(i).Float()
	}

	decoded := bitcodec.DecodeBit(samples, sampleRate)
	if decoded == nil {
		return makeErrorResponse(ErrorNoDecision, "no method produced a decision")
	}

	result := js.Global().Get("Object").New()
	result.Set("symbol", int(decoded.Symbol))
	result.Set("confidence", decoded.Confidence)
	return makeObjectResponse(result)
}

func makeDataResponse(data interface{}) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeObjectResponse(data js.Value) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "vhssync WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("computeChecksum", js.FuncOf(computeChecksum))
	js.Global().Set("encodeBit", js.FuncOf(encodeBit))
	js.Global().Set("decodeBit", js.FuncOf(decodeBit))

	if !console.IsUndefined() {
		console.Call("log", fmt.Sprintf("registered %d functions", 3))
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else {
		if !console.IsUndefined() {
			console.Call("error", "window object is undefined")
		}
	}

	if !console.IsUndefined() {
		console.Call("log", "vhssync WASM module loaded and ready")
	}

	<-done
}
