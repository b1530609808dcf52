package perf

import (
	"testing"

	"github.com/codewithboateng/dockscout/internal/classify"
	"github.com/codewithboateng/dockscout/internal/heuristics"
	"github.com/codewithboateng/dockscout/internal/ir"
)

const benchDockerfile = `FROM golang:1.23 AS builder
WORKDIR /src
COPY go.mod go.sum ./
RUN go mod download
COPY . .
RUN go build -buildvcs=false -o /bin/app ./cmd/app

FROM gcr.io/distroless/static
COPY --from=builder /bin/app /app
EXPOSE 8080
ENTRYPOINT ["/app"]
`

const benchCompose = `services:
  app:
    build:
      context: .
    ports:
      - "8080:8080"
    depends_on:
      - db
  db:
    image: postgres:16
`

func BenchmarkEvaluate_Small(b *testing.B) {
	c := classify.New(heuristics.Default())
	in := ir.RepoInput{
		Repo:      "acme/app",
		RootFiles: []string{"go.mod", "docker-compose.yml", "Dockerfile"},
		Compose:   &ir.NamedFile{Path: "docker-compose.yml", Content: benchCompose},
		Dockerfiles: []ir.NamedFile{
			{Path: "Dockerfile", Content: benchDockerfile},
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v := c.Evaluate(in)
		if v.Tier == "" {
			b.Fatal("empty tier")
		}
	}
}
