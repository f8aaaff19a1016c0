package main

// General API documentation for swaggo. The rendered document lives in
// internal/httpapi/apidocs and is served with -tags=swagger.
//
// @title           modelhostd API
// @version         1.0
// @description     Model-to-GPU assignment and LoRA adapter control surface.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
