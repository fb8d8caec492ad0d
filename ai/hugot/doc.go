// Package hugot implements ai.Embedder with a sentence-transformer model
// executed in-process by knights-analytics/hugot.
//
// The default build uses hugot's pure Go backend. Building with -tags ORT
// switches to ONNX Runtime, whose shared library is looked up in
// ORT_LIB_DIR or lib/ next to the binary.
//
// The model directory is an exported Hugging Face model (for example
// sentence-transformers/all-MiniLM-L6-v2 with its ONNX weights) and must
// contain tokenizer.json.
package hugot
