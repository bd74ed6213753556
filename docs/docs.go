// Package docs registers the swagger document served under /swagger.
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
        "/products": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "List products",
                "parameters": [
                    {"type": "string", "description": "Name contains", "name": "q", "in": "query"},
                    {"type": "number", "description": "Min price", "name": "min_price", "in": "query"},
                    {"type": "number", "description": "Max price", "name": "max_price", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Create product",
                "parameters": [
                    {"description": "Product", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.productReq"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Get product by id",
                "parameters": [{"type": "integer", "description": "Product ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Update product",
                "parameters": [
                    {"type": "integer", "description": "Product ID", "name": "id", "in": "path", "required": true},
                    {"description": "Update", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.productReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            },
            "delete": {
                "tags": ["products"],
                "summary": "Delete product",
                "parameters": [{"type": "integer", "description": "Product ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/denominations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["denominations"],
                "summary": "List denominations",
                "description": "Cash drawer contents, highest value first",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Denomination"}}}
                }
            }
        },
        "/denominations/{value}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["denominations"],
                "summary": "Set denomination count",
                "parameters": [
                    {"type": "integer", "description": "Denomination value", "name": "value", "in": "path", "required": true},
                    {"description": "Count on hand", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.setDenominationReq"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Denomination"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/bills": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["bills"],
                "summary": "Generate bill",
                "description": "Prices the cart, dispenses change from the drawer and records the purchase. When exact change is impossible the sale is still recorded with change_breakdown.kind=infeasible.",
                "parameters": [
                    {"type": "string", "description": "Replays the first result for a repeated key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Cart", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpapi.createBillReq"}}
                ],
                "responses": {
                    "200": {"description": "replayed", "schema": {"$ref": "#/definitions/domain.Purchase"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Purchase"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/purchases": {
            "get": {
                "produces": ["application/json"],
                "tags": ["purchases"],
                "summary": "List purchases",
                "description": "Newest first",
                "parameters": [{"type": "string", "description": "Customer email", "name": "email", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Purchase"}}}
                }
            }
        },
        "/purchases/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["purchases"],
                "summary": "Get purchase by id",
                "parameters": [{"type": "integer", "description": "Purchase ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Purchase"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        }
    },
    "definitions": {
        "error": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "string", "example": "100.00"},
                "tax_percent": {"type": "string", "example": "5"},
                "stock": {"type": "integer"}
            }
        },
        "domain.Denomination": {
            "type": "object",
            "properties": {
                "value": {"type": "integer"},
                "count": {"type": "integer"}
            }
        },
        "domain.BillItem": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "quantity": {"type": "integer"}
            }
        },
        "domain.DispensedNote": {
            "type": "object",
            "properties": {
                "value": {"type": "integer"},
                "count": {"type": "integer"}
            }
        },
        "domain.ChangeBreakdown": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["none", "dispensed", "infeasible"]},
                "dispensed": {"type": "array", "items": {"$ref": "#/definitions/domain.DispensedNote"}},
                "remaining": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "domain.PurchaseItem": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "product_code": {"type": "string"},
                "product_name": {"type": "string"},
                "quantity": {"type": "integer"},
                "unit_price": {"type": "string"},
                "tax_percent": {"type": "string"},
                "line_subtotal": {"type": "string"},
                "line_tax": {"type": "string"},
                "line_total": {"type": "string"}
            }
        },
        "domain.Purchase": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "customer_email": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "subtotal": {"type": "string"},
                "tax_total": {"type": "string"},
                "total": {"type": "string"},
                "cash_paid": {"type": "string"},
                "change_given": {"type": "string"},
                "change_breakdown": {"$ref": "#/definitions/domain.ChangeBreakdown"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.PurchaseItem"}}
            }
        },
        "httpapi.productReq": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "string", "example": "100.00"},
                "tax_percent": {"type": "string", "example": "5"},
                "stock": {"type": "integer"}
            }
        },
        "httpapi.setDenominationReq": {
            "type": "object",
            "properties": {"count": {"type": "integer"}}
        },
        "httpapi.createBillReq": {
            "type": "object",
            "properties": {
                "customer_email": {"type": "string", "example": "buyer@example.com"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.BillItem"}},
                "cash_paid": {"type": "string", "example": "300.00"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:9091",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "billdesk API",
	Description:      "Point-of-sale billing: catalog, cash drawer, bills with change dispensing, purchase history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
