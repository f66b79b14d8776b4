package protobuf_test

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/sevigo/semchunk/parsers/engine"
	"github.com/sevigo/semchunk/parsers/protobuf"
	logger "github.com/sevigo/semchunk/parsers/testing"
	"github.com/sevigo/semchunk/schema"
)

// mockFileInfo implements fs.FileInfo for testing
type mockFileInfo struct {
	name  string
	isDir bool
}

func (m mockFileInfo) Name() string       { return m.name }
func (m mockFileInfo) Size() int64        { return 0 }
func (m mockFileInfo) Mode() fs.FileMode  { return 0o644 }
func (m mockFileInfo) ModTime() time.Time { return time.Now() }
func (m mockFileInfo) IsDir() bool        { return m.isDir }
func (m mockFileInfo) Sys() any           { return nil }

const userProto = `syntax = "proto3";

package acme.users.v1;

import "google/protobuf/timestamp.proto";
import public "common.proto";

option go_package = "example.com/users";

// User represents a user in the system.
message User {
  string name = 1;
  int32 age = 2;
  map<string, string> labels = 3;

  message Address {
    string city = 1;
  }

  oneof contact {
    string email = 4;
    string phone = 5;
  }
}

enum Status {
  STATUS_UNSPECIFIED = 0;
  STATUS_ACTIVE = 1;
}

service UserService {
  // GetUser fetches one user.
  rpc GetUser(GetUserRequest) returns (User);
  rpc Watch(stream WatchRequest) returns (stream User) {}
}
`

func mustFind(t *testing.T, chunks []schema.SemanticChunk, kind, name string) schema.SemanticChunk {
	t.Helper()
	c, ok := logger.FindChunk(chunks, kind, name)
	if !ok {
		t.Fatalf("no %s %q in %v", kind, name, logger.Names(chunks))
	}
	return c
}

func TestProtobufParser_Basics(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	parser := protobuf.NewProtobufParser(log)

	if parser.Name() != "protobuf" {
		t.Errorf("Expected name 'protobuf', got '%s'", parser.Name())
	}
	if exts := parser.Extensions(); len(exts) != 1 || exts[0] != ".proto" {
		t.Errorf("Expected extensions [.proto], got %v", exts)
	}
}

func TestProtobufParser_CanHandle(t *testing.T) {
	parser := protobuf.NewProtobufParser(nil)

	tests := []struct {
		name     string
		path     string
		isDir    bool
		expected bool
	}{
		{"Valid proto file", "service.proto", false, true},
		{"Valid proto file with path", "api/user.proto", false, true},
		{"Upper case extension", "api/USER.PROTO", false, true},
		{"Directory", "proto/", true, false},
		{"Test file", "service_test.proto", false, false},
		{"Test file 2", "test_service.proto", false, false},
		{"Test file 3", "service.test.proto", false, false},
		{"Go file", "service.go", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := mockFileInfo{name: tt.path, isDir: tt.isDir}
			if got := parser.CanHandle(tt.path, info); got != tt.expected {
				t.Errorf("CanHandle(%q) = %v, expected %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestProtobufParser_FileLevel(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	chunks := logger.ChunkWith(t, protobuf.NewProtobufParser(log), userProto, "users.proto")

	syntax := mustFind(t, chunks, "syntax", "proto3")
	if syntax.LineStart != 1 {
		t.Errorf("Expected syntax on line 1, got %d", syntax.LineStart)
	}

	pkg := mustFind(t, chunks, "package", "acme.users.v1")
	if pkg.LineStart != 3 || pkg.Scope != schema.ScopeModule {
		t.Errorf("Unexpected package chunk: line %d scope %s", pkg.LineStart, pkg.Scope)
	}

	mustFind(t, chunks, "import", "google/protobuf/timestamp.proto")
	common := mustFind(t, chunks, "import", "common.proto")
	if !common.HasFeature("public") {
		t.Errorf("Expected public import feature, got %v", common.Features)
	}

	option := mustFind(t, chunks, "option", "go_package")
	if option.Context["value"] != "example.com/users" {
		t.Errorf("Expected option value 'example.com/users', got %v", option.Context["value"])
	}
	if option.Path != "acme.users.v1.go_package" {
		t.Errorf("Expected option path inside the package, got %s", option.Path)
	}
}

func TestProtobufParser_Definitions(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	chunks := logger.ChunkWith(t, protobuf.NewProtobufParser(log), userProto, "users.proto")

	user := mustFind(t, chunks, "message", "User")
	if user.LineStart != 11 || user.LineEnd != 24 {
		t.Errorf("Expected User at 11-24, got %d-%d", user.LineStart, user.LineEnd)
	}
	if user.Path != "acme.users.v1.User" {
		t.Errorf("Expected qualified path, got %s", user.Path)
	}
	if user.Context["fields"] != 5 {
		t.Errorf("Expected 5 fields, got %v", user.Context["fields"])
	}
	if user.Context["doc"] != "// User represents a user in the system." {
		t.Errorf("Unexpected doc %q", user.Context["doc"])
	}
	if !user.HasFeature("map") {
		t.Errorf("Expected map feature, got %v", user.Features)
	}

	address := mustFind(t, chunks, "message", "Address")
	if address.Parent != "acme.users.v1.User" || address.Scope != schema.ScopeClass {
		t.Errorf("Unexpected nested message parent %q scope %q", address.Parent, address.Scope)
	}

	contact := mustFind(t, chunks, "oneof", "contact")
	if contact.Path != "acme.users.v1.User.contact" || contact.Context["fields"] != 2 {
		t.Errorf("Unexpected oneof %s with %v fields", contact.Path, contact.Context["fields"])
	}

	status := mustFind(t, chunks, "enum", "Status")
	if status.LineStart != 26 || status.LineEnd != 29 || status.Context["values"] != 2 {
		t.Errorf("Unexpected enum %d-%d values %v", status.LineStart, status.LineEnd, status.Context["values"])
	}
}

func TestProtobufParser_Service(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	chunks := logger.ChunkWith(t, protobuf.NewProtobufParser(log), userProto, "users.proto")

	svc := mustFind(t, chunks, "service", "UserService")
	if svc.LineStart != 31 || svc.LineEnd != 35 || svc.Context["rpcs"] != 2 {
		t.Errorf("Unexpected service %d-%d rpcs %v", svc.LineStart, svc.LineEnd, svc.Context["rpcs"])
	}

	get := mustFind(t, chunks, "rpc", "GetUser")
	if get.LineStart != 33 {
		t.Errorf("Expected GetUser on line 33, got %d", get.LineStart)
	}
	if get.Parent != "acme.users.v1.UserService" {
		t.Errorf("Expected GetUser inside UserService, got %s", get.Parent)
	}
	if get.Signature != "rpc GetUser(GetUserRequest) returns (User)" {
		t.Errorf("Unexpected signature %q", get.Signature)
	}
	if get.Context["doc"] != "// GetUser fetches one user." {
		t.Errorf("Unexpected doc %q", get.Context["doc"])
	}

	watch := mustFind(t, chunks, "rpc", "Watch")
	if !watch.HasFeature("client_streaming") || !watch.HasFeature("server_streaming") {
		t.Errorf("Expected streaming features, got %v", watch.Features)
	}
	if watch.Signature != "rpc Watch(stream WatchRequest) returns (stream User)" {
		t.Errorf("Unexpected signature %q", watch.Signature)
	}
}

func TestProtobufParser_InvalidSyntax(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	parser := protobuf.NewProtobufParser(log)

	invalidProto := `syntax = "proto3"
message Invalid {
  string name = 1
  // Missing semicolon above
`
	chunks := logger.ChunkWith(t, parser, invalidProto, "broken.proto")
	if _, ok := logger.FindByName(chunks, "Invalid"); !ok {
		t.Errorf("Expected Invalid to be recovered, got %v", logger.Names(chunks))
	}
	logger.AssertIdempotent(t, func() []schema.SemanticChunk {
		return logger.ChunkWith(t, parser, invalidProto, "broken.proto")
	})
}

func TestProtobufParser_WholeFileFallback(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	parser := protobuf.NewProtobufParser(log)

	content := "package demo;\n\nservice Greeter {\n  rpc Hello(Req) returns (Resp);\n}\n"
	chunks := parser.WholeFileFallback(content, "greeter.proto")
	logger.AssertChunkInvariants(t, content, chunks)

	svc := mustFind(t, chunks, "service", "Greeter")
	if svc.LineStart != 3 || svc.LineEnd != 5 {
		t.Errorf("Expected Greeter at 3-5, got %d-%d", svc.LineStart, svc.LineEnd)
	}
	hello := mustFind(t, chunks, "rpc", "Hello")
	if hello.Path != "Greeter.Hello" || hello.LineEnd != 4 {
		t.Errorf("Unexpected rpc %s ending on %d", hello.Path, hello.LineEnd)
	}
	if hello.Context[schema.ContextRecovery] != engine.RecoveryWholeFile {
		t.Errorf("Expected whole-file recovery tag, got %v", hello.Context[schema.ContextRecovery])
	}
}

func TestProtobufParser_ExtractMetadata(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	extractor, ok := protobuf.NewProtobufParser(log).(engine.MetadataExtractor)
	if !ok {
		t.Fatal("protobuf parser does not extract metadata")
	}

	t.Run("Complete", func(t *testing.T) {
		metadata, err := extractor.ExtractMetadata(userProto, "users.proto")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		expected := map[string]string{
			"syntax":            "proto3",
			"package":           "acme.users.v1",
			"option.go_package": "example.com/users",
			"total_messages":    "1",
			"total_services":    "1",
			"total_enums":       "1",
			"total_rpcs":        "2",
			"total_fields":      "6",
		}
		for key, want := range expected {
			if got := metadata.Properties[key]; got != want {
				t.Errorf("Property %s = %q, expected %q", key, got, want)
			}
		}

		if strings.Join(metadata.Imports, ",") != "google/protobuf/timestamp.proto,common.proto" {
			t.Errorf("Unexpected imports %v", metadata.Imports)
		}

		signatures := map[string]string{}
		for _, def := range metadata.Definitions {
			signatures[def.Name] = def.Signature
		}
		if got := signatures["UserService.Watch"]; got != "rpc Watch(stream WatchRequest) returns (stream User)" {
			t.Errorf("Unexpected rpc signature %q", got)
		}
		if got := signatures["User"]; got != "message User { (5 fields)" {
			t.Errorf("Unexpected message signature %q", got)
		}
		if _, ok := signatures["User.Address"]; !ok {
			t.Errorf("Expected nested message definition, got %v", signatures)
		}
	})

	t.Run("InvalidSyntax", func(t *testing.T) {
		if _, err := extractor.ExtractMetadata("message Broken {", "broken.proto"); err == nil {
			t.Error("Expected error for invalid syntax, got nil")
		}
	})
}
