// Package docs registers the OpenAPI description served at /swagger/.
// Regenerate with: swag init -g cmd/phantomd/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/wallet/connect": {"post": {"tags": ["wallet"], "summary": "Connect wallet", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionResponse"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}}}},
        "/wallet/disconnect": {"post": {"tags": ["wallet"], "summary": "Disconnect wallet", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionResponse"}}}}},
        "/wallet/session": {"get": {"tags": ["wallet"], "summary": "Get session", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionResponse"}}}}},
        "/wallet/balance": {"post": {"tags": ["wallet"], "summary": "Refresh balances", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SessionResponse"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}}}},
        "/wallet/send": {"post": {"tags": ["wallet"], "summary": "Send native asset", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"description": "Transfer data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.SendRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SendResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}}}},
        "/wallet/receive": {"get": {"tags": ["wallet"], "summary": "Receive address", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ReceiveResponse"}}}}},
        "/wallet/portfolio": {"get": {"tags": ["wallet"], "summary": "Portfolio value", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PortfolioResponse"}}, "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}}}},
        "/operations": {"post": {"tags": ["operations"], "summary": "Authorize and run an operation", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"description": "Operation", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.OperationDescriptor"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AttemptResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/model.AttemptResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}}}},
        "/operations/flags": {"get": {"tags": ["operations"], "summary": "Operation progress", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.FlagsResponse"}}}}},
        "/operations/stress-test": {"post": {"tags": ["operations"], "summary": "Run stress test", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.StressTestResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}}}},
        "/signatures": {"get": {"tags": ["signatures"], "summary": "List signatures", "produces": ["application/json"], "parameters": [{"type": "string", "description": "Case-insensitive search term", "name": "search", "in": "query"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SignatureListResponse"}}}}},
        "/signatures/export": {"get": {"tags": ["signatures"], "summary": "Export signatures", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.SignatureRecord"}}}}}},
        "/signatures/inspect": {"get": {"tags": ["signatures"], "summary": "Inspect signature", "produces": ["application/json"], "parameters": [{"type": "string", "description": "Signature record id", "name": "id", "in": "query", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.InspectionResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}}}},
        "/rewards": {"get": {"tags": ["rewards"], "summary": "Rewards summary", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RewardsResponse"}}}}},
        "/rewards/spend": {"post": {"tags": ["rewards"], "summary": "Spend PHAN", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"description": "Amount", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.SpendRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SpendResponse"}}}}},
        "/rewards/unlock": {"post": {"tags": ["rewards"], "summary": "Unlock feature", "consumes": ["application/json"], "produces": ["application/json"], "parameters": [{"description": "Feature id", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.UnlockRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SpendResponse"}}, "402": {"description": "Payment Required", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}}}}
    },
    "definitions": {
        "model.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "string"}}},
        "model.Asset": {"type": "object", "properties": {"symbol": {"type": "string"}, "name": {"type": "string"}, "balance": {"type": "string"}, "decimals": {"type": "integer"}, "contractAddress": {"type": "string"}, "logo": {"type": "string"}}},
        "model.SessionResponse": {"type": "object", "properties": {"account": {"type": "string"}, "chainId": {"type": "string"}, "connectionState": {"type": "string"}, "provider": {"type": "string"}, "assets": {"type": "array", "items": {"$ref": "#/definitions/model.Asset"}}}},
        "model.SendRequest": {"type": "object", "properties": {"toAddress": {"type": "string"}, "amount": {"type": "string"}, "memo": {"type": "string"}}},
        "model.SendResponse": {"type": "object", "properties": {"txId": {"type": "string"}}},
        "model.ReceiveResponse": {"type": "object", "properties": {"address": {"type": "string"}, "chainId": {"type": "string"}, "QR": {"type": "string"}}},
        "model.PortfolioResponse": {"type": "object", "properties": {"account": {"type": "string"}, "currency": {"type": "string"}, "total": {"type": "string"}, "lines": {"type": "array", "items": {"type": "object"}}}},
        "model.OperationDescriptor": {"type": "object", "properties": {"type": {"type": "string"}, "title": {"type": "string"}, "description": {"type": "string"}, "details": {"type": "object"}, "estimatedGas": {"type": "string"}}},
        "model.AttemptResponse": {"type": "object", "properties": {"id": {"type": "string"}, "operation": {"type": "string"}, "state": {"type": "string"}, "transitions": {"type": "array", "items": {"type": "string"}}, "signatureId": {"type": "string"}, "signature": {"type": "string"}, "scheme": {"type": "string"}, "simulated": {"type": "boolean"}, "txHash": {"type": "string"}, "reward": {"type": "string"}, "bonus": {"type": "string"}, "balance": {"type": "string"}, "steps": {"type": "array", "items": {"type": "string"}}, "error": {"type": "string"}, "startedAt": {"type": "string"}, "finishedAt": {"type": "string"}}},
        "model.FlagsResponse": {"type": "object", "properties": {"account": {"type": "string"}, "completed": {"type": "object", "additionalProperties": {"type": "boolean"}}, "suiteProgress": {"type": "array", "items": {"type": "string"}}, "suitesCompleted": {"type": "integer"}, "hasActivity": {"type": "boolean"}}},
        "model.TestResult": {"type": "object", "properties": {"id": {"type": "string"}, "type": {"type": "string"}, "status": {"type": "string"}, "timestamp": {"type": "string"}, "duration": {"type": "integer"}, "details": {"type": "string"}}},
        "model.StressTestResponse": {"type": "object", "properties": {"results": {"type": "array", "items": {"$ref": "#/definitions/model.TestResult"}}, "successRate": {"type": "integer"}, "avgDuration": {"type": "integer"}, "bonus": {"type": "string"}, "balance": {"type": "string"}}},
        "model.SignatureRecord": {"type": "object", "properties": {"id": {"type": "string"}, "operation": {"type": "string"}, "signature": {"type": "string"}, "scheme": {"type": "string"}, "simulated": {"type": "boolean"}, "account": {"type": "string"}, "message": {"type": "string"}, "timestamp": {"type": "string"}, "status": {"type": "string"}, "txHash": {"type": "string"}}},
        "model.SignatureListResponse": {"type": "object", "properties": {"account": {"type": "string"}, "stats": {"type": "object"}, "signatures": {"type": "array", "items": {"$ref": "#/definitions/model.SignatureRecord"}}}},
        "model.InspectionResponse": {"type": "object", "properties": {"record": {"$ref": "#/definitions/model.SignatureRecord"}, "checks": {"type": "array", "items": {"type": "object"}}}},
        "model.RewardsResponse": {"type": "object", "properties": {"account": {"type": "string"}, "balance": {"type": "string"}, "rank": {"type": "integer"}, "features": {"type": "array", "items": {"type": "object"}}}},
        "model.SpendRequest": {"type": "object", "properties": {"amount": {"type": "string"}}},
        "model.UnlockRequest": {"type": "object", "properties": {"feature": {"type": "string"}}},
        "model.SpendResponse": {"type": "object", "properties": {"success": {"type": "boolean"}, "balance": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Phantom Wallet API",
	Description:      "Wallet session, signature-gated operations, signature log and PHAN rewards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
