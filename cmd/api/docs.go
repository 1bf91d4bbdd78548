//go:generate swag init -g docs.go -o ../../docs --parseDependency --parseInternal --dir .,../../internal/httpapi

package main

// @title alerta_api API
// @version 1.0
// @description Emergency reports, alerts, shelters and risk map HTTP API.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Web or mobile client key
