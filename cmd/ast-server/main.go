// cmd/ast-server/main.go — HTTP front end for the LaTeX AST core
//
// Endpoints:
//   POST /latex_to_ast — parse a LaTeX string, return AST and steps
//   POST /from_image   — recognize a formula image first (needs -recognizer)
//   GET  /health       — liveness check
//
// Usage:
//   go run ./cmd/ast-server -port 8080 -recognizer http://localhost:8001/get_latex
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	ocrserver "github.com/TDE144/ocr-server"
)

const maxBodyBytes = 10 << 20 // 10 MiB, images included

type astRequest struct {
	Latex string `json:"latex"`
	// nil means "all steps"; 0 suppresses the sequence.
	MaxSteps *int `json:"max_steps"`
}

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	recognizerURL := flag.String("recognizer", "", "URL of the external get_latex service (enables /from_image)")
	flag.Parse()

	var recognizer ocrserver.Recognizer
	if *recognizerURL != "" {
		recognizer = &ocrserver.HTTPRecognizer{
			URL:    *recognizerURL,
			Client: &http.Client{Timeout: 30 * time.Second},
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/latex_to_ast", func(w http.ResponseWriter, r *http.Request) {
		defer recoverHandler(w)
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer r.Body.Close()

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req astRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if dec.More() {
			writeError(w, http.StatusBadRequest, errors.New("invalid JSON: trailing data"))
			return
		}

		writeResult(w, req.Latex, stepCount(req.MaxSteps))
	})

	mux.HandleFunc("/from_image", func(w http.ResponseWriter, r *http.Request) {
		defer recoverHandler(w)
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if recognizer == nil {
			writeError(w, http.StatusNotImplemented, errors.New("no recognizer configured"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer r.Body.Close()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
			return
		}
		defer file.Close()

		latex, err := recognizer.Recognize(r.Context(), file, header.Filename)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}

		maxSteps := ocrserver.AllSteps
		if v := r.FormValue("max_steps"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("max_steps: %w", err))
				return
			}
			maxSteps = n
		}

		writeResult(w, latex, maxSteps)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("ast-server listening on %s", addr)
	log.Printf("  POST /latex_to_ast — LaTeX to AST and steps")
	log.Printf("  POST /from_image   — formula image to AST and steps")
	log.Printf("  GET  /health       — health check")

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func stepCount(v *int) int {
	if v == nil {
		return ocrserver.AllSteps
	}
	return *v
}

func writeResult(w http.ResponseWriter, latex string, maxSteps int) {
	res, err := ocrserver.Process(latex, maxSteps)
	if err != nil {
		// Not even the token walker could make sense of the input.
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func recoverHandler(w http.ResponseWriter) {
	if rec := recover(); rec != nil {
		log.Printf("panic in handler: %v\n%s", rec, string(debug.Stack()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
