/*
Package handlers implements the AlphaWave HTTP endpoints: health probes, the
response-validation surface and the websocket chat channel.

Core pieces:

  - HealthHandler: /health, /healthz, /ready, /version with pluggable checks
  - ValidateHandler: POST /v1/validate runs the JSON response validator over
    supplied text and schema, for operational debugging
  - ChatSocketHandler: GET /v1/chat/ws streams chat turns over a websocket
  - Response / ErrorInfo: unified JSON envelope with WriteSuccess/WriteError
  - DecodeJSONBody: strict request decoding with a body size limit

All handlers follow the standard net/http interfaces.
*/
package handlers
