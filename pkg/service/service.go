package service

// Service is anything with a lifecycle managed by the application.
type Service interface {
	Run()
	Stop() error
}

// Group is a container for managing a bunch of services.
type Group struct {
	list []Service
}

func (g *Group) Add(services ...Service) { g.list = append(g.list, services...) }

// AddIf appends the service only when cond holds.
func (g *Group) AddIf(cond bool, s Service) *Group {
	if cond {
		g.Add(s)
	}
	return g
}

// Start starts each service in the group.
func (g *Group) Start() {
	for _, s := range g.list {
		s.Run()
	}
}

// Stop terminates the group in reverse start order and returns the
// first error encountered.
func (g *Group) Stop() (err error) {
	for i := len(g.list) - 1; i >= 0; i-- {
		if e := g.list[i].Stop(); e != nil && err == nil {
			err = e
		}
	}
	return
}
