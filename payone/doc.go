// Package payone implements the PAYONE post-gateway integration that backs
// the bridge's REST surface.
//
// The gateway speaks a legacy form-encoded protocol: every operation is an
// HTTP POST of application/x-www-form-urlencoded fields to a single fixed
// endpoint, authenticated with an MD5 digest of the portal key. Responses
// come back either as JSON or as a key=value&... string, and field casing is
// not stable across gateway versions, so parsed responses keep every key in
// both its original and lower-cased form.
//
// # Components
//
//   - Client: builds authenticated request parameter sets for the four
//     payment operations (preauthorization, authorization, capture, refund),
//     submits them, and normalizes the response.
//   - TransactionStore: appends one record per completed gateway exchange to
//     a capped, newest-first history and answers filtered reads.
//   - TestConnection: submits a dummy authorization with a fresh unique
//     reference and classifies the outcome, treating the gateway's
//     duplicate-reference error as proof of valid credentials.
//
// Settings are re-read from the backing store on every call so credential
// updates take effect immediately.
package payone
