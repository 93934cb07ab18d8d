// Package docs registers the Swagger 2.0 document served under /swagger/.
// Keep it in step with the handler annotations in pkg/api.
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
        "/admin/orders": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "summary": "List orders",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}}}
            }
        },
        "/admin/orders/payment": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update payment status",
                "parameters": [{"description": "New payment status", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.paymentStatusRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.response"}}
                }
            }
        },
        "/admin/orders/status": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update order status",
                "parameters": [{"description": "New status", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.orderStatusRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.response"}}
                }
            }
        },
        "/admin/products/stock": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Adjust product stock",
                "parameters": [{"description": "Product and delta", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.stockRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.response"}}
                }
            }
        },
        "/cart": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "summary": "Get cart",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}}}
            }
        },
        "/cart/add": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Add to cart",
                "parameters": [{"description": "Product and quantity (default 1)", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.cartRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.response"}}
                }
            }
        },
        "/cart/remove": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Remove from cart",
                "parameters": [{"description": "Product", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.cartRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}}}
            }
        },
        "/cart/update": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update cart quantity",
                "parameters": [{"description": "Product and new quantity", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.cartRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.response"}}
                }
            }
        },
        "/order/create": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Create order",
                "parameters": [{"description": "Checkout details", "name": "order", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.createOrderRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.response"}}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "summary": "Get order",
                "parameters": [{"type": "integer", "description": "Order ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.response"}}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get product",
                "parameters": [{"type": "integer", "description": "Product ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.response"}}
                }
            }
        }
    },
    "definitions": {
        "api.cartRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "quantity": {"type": "integer"}
            }
        },
        "api.createOrderRequest": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "alt_phone": {"type": "string"},
                "payment_method": {"type": "string"}
            }
        },
        "api.orderStatusRequest": {
            "type": "object",
            "properties": {
                "order_id": {"type": "integer"},
                "order_status": {"type": "string"}
            }
        },
        "api.paymentStatusRequest": {
            "type": "object",
            "properties": {
                "order_id": {"type": "integer"},
                "payment_status": {"type": "string"}
            }
        },
        "api.response": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "order_id": {"type": "integer"},
                "product_id": {"type": "integer"},
                "success": {"type": "boolean"}
            }
        },
        "api.stockRequest": {
            "type": "object",
            "properties": {
                "delta": {"type": "integer"},
                "product_id": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8443",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Catalog, cart and order placement",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
