// Package reader inspects executed responses.
//
// It provides:
//   - Status code, response family and header access
//   - JSON path queries using gjson syntax
//   - Slash-separated element paths into XML bodies
//   - JSON schema validation of the body
package reader
