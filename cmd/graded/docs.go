package main

// General API documentation for swaggo. Run `swag init -g cmd/graded/docs.go`
// to regenerate docs.
//
// @title           graded API
// @version         1.0
// @description     HTTP API for on-device grading inference.
//
// @BasePath  /
//
// @schemes http
