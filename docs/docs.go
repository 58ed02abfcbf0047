// Package docs registra el descriptor swagger del API. Se regenera con
// `swag init -g cmd/api/main.go`; las anotaciones viven en los handlers.
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
        "/users": {
            "post": {
                "tags": ["users"],
                "summary": "Registrar usuario",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/users.registerRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/users.userResponse"}},
                    "400": {"description": "invalid json / campo requerido", "schema": {"type": "string"}},
                    "409": {"description": "email o cpf ya registrado", "schema": {"type": "string"}}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["users"],
                "summary": "Login",
                "description": "Devuelve el usuario y un token Bearer. 401 si la clave no coincide, 404 si la cuenta no existe.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/users.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.loginResponse"}},
                    "401": {"description": "invalid credentials", "schema": {"type": "string"}},
                    "404": {"description": "user not found", "schema": {"type": "string"}}
                }
            }
        },
        "/users/{userID}": {
            "get": {
                "tags": ["users"],
                "summary": "Buscar usuario por ID",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.userResponse"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}},
                    "403": {"description": "forbidden", "schema": {"type": "string"}},
                    "404": {"description": "user not found", "schema": {"type": "string"}}
                }
            },
            "patch": {
                "tags": ["users"],
                "summary": "Editar perfil",
                "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/users.userResponse"}}}
            },
            "delete": {
                "tags": ["users"],
                "summary": "Borrar cuenta (cascada a mascotas y vacunas)",
                "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/pets": {
            "post": {
                "tags": ["pets"],
                "summary": "Crear mascota",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/pets.petResponse"}},
                    "400": {"description": "invalid json / campo requerido / peso inválido", "schema": {"type": "string"}}
                }
            }
        },
        "/users/{userID}/pets": {
            "get": {
                "tags": ["pets"],
                "summary": "Listar mascotas de un usuario",
                "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/pets.petResponse"}}}}
            }
        },
        "/pets/{petID}/vaccines": {
            "post": {
                "tags": ["vaccines"],
                "summary": "Registrar vacuna",
                "description": "Fechas fuera de orden (refuerzo antes de aplicación) se aceptan y devuelven un warning.",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/vaccines.vaccineResponse"}}}
            }
        },
        "/users/{userID}/vaccines": {
            "get": {
                "tags": ["vaccines"],
                "summary": "Listar vacunas de todas las mascotas del usuario",
                "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/vaccines.vaccineResponse"}}}}
            }
        },
        "/users/{userID}/dashboard": {
            "get": {
                "tags": ["dashboard"],
                "summary": "Resumen de mascotas y vacunas",
                "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dashboard.dashboardResponse"}}}
            }
        }
    },
    "definitions": {
        "users.registerRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "cpf": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "users.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "users.userResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "photo_url": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "users.loginResponse": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/users.userResponse"}, "token": {"type": "string"}}
        },
        "pets.petResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "owner_user_id": {"type": "string"},
                "name": {"type": "string"},
                "species": {"type": "string"},
                "sex": {"type": "string"},
                "weight": {"type": "number"},
                "photo_url": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "vaccines.vaccineResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "pet_id": {"type": "string"},
                "pet_name": {"type": "string"},
                "name": {"type": "string"},
                "applied_on": {"type": "string"},
                "next_dose_on": {"type": "string"},
                "veterinarian": {"type": "string"},
                "status": {"type": "string", "enum": ["overdue", "upcoming", "current"]},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"}
            }
        },
        "dashboard.dashboardResponse": {
            "type": "object",
            "properties": {
                "stats": {
                    "type": "object",
                    "properties": {
                        "totalPets": {"type": "integer"},
                        "totalVaccines": {"type": "integer"},
                        "upcomingVaccines": {"type": "integer"},
                        "overdueVaccines": {"type": "integer"}
                    }
                },
                "recent_pets": {"type": "array", "items": {"type": "object"}},
                "due_vaccines": {"type": "array", "items": {"$ref": "#/definitions/vaccines.vaccineResponse"}},
                "at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Vaccine Tracker API",
	Description:      "Usuarios, mascotas, vacunas y resumen de refuerzos vencidos/próximos.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
