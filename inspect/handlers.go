package inspect

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/managed/component"
	"github.com/kbukum/managed/di"
	"github.com/kbukum/managed/errors"
	"github.com/kbukum/managed/version"
)

// PlanView is the JSON form of a di.Plan.
type PlanView struct {
	Root   string     `json:"root"`
	Nodes  []NodeView `json:"nodes"`
	Edges  []EdgeView `json:"edges"`
	Levels [][]string `json:"levels"`
}

// NodeView is one node of a PlanView.
type NodeView struct {
	Key          string   `json:"key"`
	Scope        string   `json:"scope"`
	External     bool     `json:"external,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// EdgeView is a dependency edge: To depends on From.
type EdgeView struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Register mounts the inspection routes on r.
func Register(r gin.IRouter, c *di.Container) {
	r.GET("/bindings", Bindings(c))
	r.GET("/instances", Instances(c))
	r.GET("/plan", Plan(c))
	r.GET("/health", Health(c))
	r.GET("/version", Version(c))
}

// Bindings lists the container's bindings.
func Bindings(c *di.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bindings := c.Bindings()
		respondOK(ctx, bindings, &Meta{Total: len(bindings), ContainerID: c.ID()})
	}
}

// Instances lists the cached singletons.
func Instances(c *di.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c.Closed() {
			respondWithError(ctx, di.ErrContainerClosed)
			return
		}
		instances := c.Instances()
		respondOK(ctx, instances, &Meta{Total: len(instances), ContainerID: c.ID()})
	}
}

// Plan computes the plan of the key given in the "key" query parameter.
func Plan(c *di.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw := ctx.Query("key")
		if raw == "" {
			respondWithError(ctx, errors.InvalidInput("key", "query parameter is required"))
			return
		}
		key, err := di.ParseKey(raw)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		p, err := c.PlanContext(ctx.Request.Context(), key)
		if err != nil {
			respondWithError(ctx, err)
			return
		}
		respondOK(ctx, planView(p), &Meta{Total: p.Len(), ContainerID: c.ID()})
	}
}

func planView(p *di.Plan) PlanView {
	v := PlanView{
		Root:   p.Root.String(),
		Nodes:  make([]NodeView, len(p.Nodes)),
		Edges:  make([]EdgeView, len(p.Edges)),
		Levels: make([][]string, 0),
	}
	for i, n := range p.Nodes {
		v.Nodes[i] = NodeView{
			Key:          n.Key.String(),
			Scope:        n.Scope.String(),
			External:     n.External,
			Dependencies: keyStrings(n.Dependencies),
		}
	}
	for i, e := range p.Edges {
		v.Edges[i] = EdgeView{From: e.From.String(), To: e.To.String()}
	}
	for _, level := range p.Levels() {
		v.Levels = append(v.Levels, keyStrings(level))
	}
	return v
}

func keyStrings(keys []di.TypeKey) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// Health reports the managed instances' health. Any unhealthy instance
// turns the response into a 503.
func Health(c *di.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c.Closed() {
			respondWithError(ctx, di.ErrContainerClosed)
			return
		}
		reports := c.Health(ctx.Request.Context())
		overall := component.Overall(reports)

		httpStatus := http.StatusOK
		if overall == component.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}
		ctx.JSON(httpStatus, gin.H{
			"status":      overall,
			"containerId": c.ID(),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"components":  reports,
		})
	}
}

// Version reports the build the container runs in.
func Version(c *di.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		respondOK(ctx, version.Get(), &Meta{ContainerID: c.ID()})
	}
}
