// Package pb holds the protobuf and gRPC bindings for the FileService.
package pb

//go:generate protoc --go_out=. --go_opt=paths=source_relative --go-grpc_out=. --go-grpc_opt=paths=source_relative file_service.proto
