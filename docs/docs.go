// Package docs holds the Swagger spec served at /swagger. Regenerate the
// full document with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user"}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login user"}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Logout user"}},
        "/auth/account": {"get": {"tags": ["auth"], "summary": "Get user account details", "security": [{"BearerAuth": []}]}},
        "/split/plan": {"post": {"tags": ["split"], "summary": "Edit an allocation", "security": [{"BearerAuth": []}]}},
        "/split/submit": {"post": {"tags": ["split"], "summary": "Split a voucher", "security": [{"BearerAuth": []}]}},
        "/split/export.csv": {"get": {"tags": ["split"], "summary": "Export vouchers", "security": [{"BearerAuth": []}]}, "post": {"tags": ["split"], "summary": "Export split result", "security": [{"BearerAuth": []}]}},
        "/vouchers/validate": {"post": {"tags": ["vouchers"], "summary": "Validate voucher", "security": [{"BearerAuth": []}]}},
        "/vouchers/balance": {"post": {"tags": ["vouchers"], "summary": "Check voucher balance", "security": [{"BearerAuth": []}]}},
        "/vouchers/purchase": {"post": {"tags": ["vouchers"], "summary": "Purchase voucher", "security": [{"BearerAuth": []}]}},
        "/vouchers/denominations": {"get": {"tags": ["vouchers"], "summary": "Purchase denominations"}},
        "/vouchers/qr": {"post": {"tags": ["vouchers"], "summary": "Voucher QR code", "security": [{"BearerAuth": []}]}},
        "/redeem/airtime": {"post": {"tags": ["redeem"], "summary": "Redeem for airtime", "security": [{"BearerAuth": []}]}},
        "/redeem/electricity/confirm": {"post": {"tags": ["redeem"], "summary": "Confirm electricity meter", "security": [{"BearerAuth": []}]}},
        "/redeem/electricity": {"post": {"tags": ["redeem"], "summary": "Vend electricity", "security": [{"BearerAuth": []}]}},
        "/redeem/betway": {"post": {"tags": ["redeem"], "summary": "Redeem at Betway", "security": [{"BearerAuth": []}]}},
        "/redeem/wallet": {"post": {"tags": ["redeem"], "summary": "Redeem to wallet", "security": [{"BearerAuth": []}]}},
        "/history": {"get": {"tags": ["history"], "summary": "List history", "security": [{"BearerAuth": []}]}},
        "/history/{id}": {"get": {"tags": ["history"], "summary": "Get history entry", "security": [{"BearerAuth": []}]}},
        "/history/{id}/status": {"patch": {"tags": ["history"], "summary": "Update history status", "security": [{"BearerAuth": []}]}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Voucher Split API",
	Description:      "Split, buy and redeem prepaid vouchers",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
