// Package memory provides a semantic memory store for agents.
//
// Text is embedded into a vector, persisted under an identifier, and later
// retrieved by similarity to a query. Results scoring below a relevance
// threshold are dropped before they reach the caller.
//
// Architecture:
//   - Collection: keyed vector storage with upsert-by-id and nearest-neighbour
//     search (chromem-go in store/chromem)
//   - Embedder: text-to-vector conversion used by the collection (OpenAI,
//     Gemini, ONNX, a cached wrapper, and a deterministic mock for tests)
//   - Store: owns the collection and the relevance threshold, and exposes
//     CreateMemory and SearchMemory
//
// Writing an existing id replaces its content, embedding and metadata. No
// metadata is merged across writes.
//
// The tools package exposes a Store to an agent host as create_memory and
// search_memory tools. This package does not depend on it.
package memory
