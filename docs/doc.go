// Package docs holds the generated OpenAPI documentation for the pagefit
// HTTP API.
//
// pagefit API
//
//	@title			pagefit API
//	@version		1.0
//	@description	Section measurement, pagination and layout audit for résumé documents.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/pagefit
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http
package docs

//go:generate swag init -g ../cmd/pagefit/serve.go -o ./swagger --parseDependency --parseInternal
