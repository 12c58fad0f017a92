package records

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
	"github.com/trezcool/campusdesk/core/store"
)

var ErrUnknownResource = errors.New("unknown resource")

// Remotes are the backend endpoints of the record collections.
type Remotes struct {
	Students  store.Remote[Student]
	Teachers  store.Remote[Teacher]
	Employees store.Remote[Employee]
	Parents   store.Remote[Parent]
	Assets    store.Remote[Asset]
	Vehicles  store.Remote[Vehicle]
	Drivers   store.Remote[Driver]
	Expenses  store.Remote[Expense]
	Tickets   store.Remote[Ticket]
	Notices   store.Remote[Notice]
	Payroll   store.Remote[Payroll]
}

// Workspace holds the record collections of one scope.
type Workspace struct {
	Students  *store.Collection[Student]
	Teachers  *store.Collection[Teacher]
	Employees *store.Collection[Employee]
	Parents   *store.Collection[Parent]
	Assets    *store.Collection[Asset]
	Vehicles  *store.Collection[Vehicle]
	Drivers   *store.Collection[Driver]
	Expenses  *store.Collection[Expense]
	Tickets   *store.Collection[Ticket]
	Notices   *store.Collection[Notice]
	Payroll   *store.Collection[Payroll]

	resources map[string]store.Resource
}

func newWorkspace(r Remotes, onMutate store.MutateFunc) *Workspace {
	ws := &Workspace{
		Students:  store.NewCollection[Student]("students", r.Students, onMutate),
		Teachers:  store.NewCollection[Teacher]("teachers", r.Teachers, onMutate),
		Employees: store.NewCollection[Employee]("employees", r.Employees, onMutate),
		Parents:   store.NewCollection[Parent]("parents", r.Parents, onMutate),
		Assets:    store.NewCollection[Asset]("assets", r.Assets, onMutate),
		Vehicles:  store.NewCollection[Vehicle]("vehicles", r.Vehicles, onMutate),
		Drivers:   store.NewCollection[Driver]("drivers", r.Drivers, onMutate),
		Expenses:  store.NewCollection[Expense]("expenses", r.Expenses, onMutate),
		Tickets:   store.NewCollection[Ticket]("tickets", r.Tickets, onMutate),
		Notices:   store.NewCollection[Notice]("notices", r.Notices, onMutate),
		Payroll:   store.NewCollection[Payroll]("payroll", r.Payroll, onMutate),
	}
	ws.resources = make(map[string]store.Resource)
	for _, res := range []store.Resource{
		ws.Students, ws.Teachers, ws.Employees, ws.Parents, ws.Assets, ws.Vehicles,
		ws.Drivers, ws.Expenses, ws.Tickets, ws.Notices, ws.Payroll,
	} {
		ws.resources[res.Name()] = res
	}
	return ws
}

// Resource returns the collection named name.
func (ws *Workspace) Resource(name string) (store.Resource, bool) {
	res, ok := ws.resources[name]
	return res, ok
}

// Names lists the collection names.
func (ws *Workspace) Names() []string {
	names := make([]string, 0, len(ws.resources))
	for name := range ws.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service keeps one Workspace per scope.
type Service struct {
	remotes   Remotes
	snapshots store.SnapshotStore
	logger    core.Logger

	mu         sync.Mutex
	workspaces map[core.Scope]*Workspace
}

func NewService(remotes Remotes, snapshots store.SnapshotStore, logger core.Logger) *Service {
	return &Service{
		remotes:    remotes,
		snapshots:  snapshots,
		logger:     logger,
		workspaces: make(map[core.Scope]*Workspace),
	}
}

func (svc *Service) Workspace(scope core.Scope) *Workspace {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	ws, ok := svc.workspaces[scope]
	if !ok {
		ws = newWorkspace(svc.remotes, store.InvalidateOnMutate(scope.Portal.StorageKey(), svc.snapshots, svc.logger))
		svc.workspaces[scope] = ws
	}
	return ws
}

func (svc *Service) Resource(scope core.Scope, name string) (store.Resource, error) {
	if res, ok := svc.Workspace(scope).Resource(name); ok {
		return res, nil
	}
	return nil, errors.Wrapf(ErrUnknownResource, "%q", name)
}
