package compose

import (
	"reflect"
	"testing"
)

const sampleCompose = `version: "3.9"

services:
  web:
    build:
      context: ./web
      dockerfile: Dockerfile.web
    ports:
      - "8080:80"
    depends_on:
      - db
  api:
    build: ./api
    depends_on:
      db:
        condition: service_healthy
  db:
    image: postgres:16
    ports:
      - "5432:5432"
`

func TestHasBuildDirective(t *testing.T) {
	if !HasBuildDirective(sampleCompose) {
		t.Fatalf("expected build directive")
	}
	if HasBuildDirective("services:\n  db:\n    image: postgres:16\n") {
		t.Fatalf("image-only compose must not count as build")
	}
}

func TestParseServices_BuildOnly(t *testing.T) {
	services := ParseServices(sampleCompose)
	if len(services) != 2 {
		t.Fatalf("services = %d, want 2 (db has no build): %+v", len(services), services)
	}

	web := services[0]
	if web.Name != "web" || !web.HasBuild {
		t.Fatalf("first service = %+v, want web with build", web)
	}
	if web.BuildContext != "./web" || web.Dockerfile != "Dockerfile.web" {
		t.Fatalf("web build = (%q, %q), want (./web, Dockerfile.web)", web.BuildContext, web.Dockerfile)
	}
	if !reflect.DeepEqual(web.Ports, []string{"8080:80"}) {
		t.Fatalf("web ports = %v", web.Ports)
	}
	if !reflect.DeepEqual(web.DependsOn, []string{"db"}) {
		t.Fatalf("web depends_on = %v", web.DependsOn)
	}

	api := services[1]
	if api.BuildContext != "./api" {
		t.Fatalf("inline build context = %q, want ./api", api.BuildContext)
	}
	// Long-form depends_on lists service names as map keys.
	if !reflect.DeepEqual(api.DependsOn, []string{"db"}) {
		t.Fatalf("api depends_on = %v, want [db]", api.DependsOn)
	}
}

func TestParseServices_OutsideServicesIgnored(t *testing.T) {
	content := `volumes:
  data:
services:
  app:
    build: .
networks:
  default:
    driver: bridge
`
	services := ParseServices(content)
	if len(services) != 1 || services[0].Name != "app" {
		t.Fatalf("services = %+v, want only app", services)
	}
}

func TestParseServices_Empty(t *testing.T) {
	if got := ParseServices(""); len(got) != 0 {
		t.Fatalf("empty input produced %+v", got)
	}
	if got := ParseServices("# comment only\n"); len(got) != 0 {
		t.Fatalf("comment-only input produced %+v", got)
	}
}
