package background

import (
	"encoding/json"
	"errors"

	"github.com/RichardKnop/machinery/v1"

	"github.com/helpme-app/helpme-api/schema"
	"github.com/helpme-app/helpme-api/store"
)

// BackgroundManager runs the jobs that keep the relational store in sync
// with the dispatcher
type BackgroundManager struct {
	store store.HelpCore

	taskServer *machinery.Server

	worker *machinery.Worker
}

func New(helpStore store.HelpCore, taskServer *machinery.Server) *BackgroundManager {
	return &BackgroundManager{
		store:      helpStore,
		taskServer: taskServer,
	}
}

func (m *BackgroundManager) RegisterTask(name string, taskFunc interface{}) error {
	return m.taskServer.RegisterTask(name, taskFunc)
}

// Run spawn workers to execute background jobs. It blocks until the
// worker quits.
func (m *BackgroundManager) Run(concurrency int) error {
	if m.taskServer == nil {
		return errors.New("task server is not configured")
	}
	if m.worker != nil {
		return errors.New("background worker has started")
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	m.worker = m.taskServer.NewWorker("helpme-worker", concurrency)
	return m.worker.Launch()
}

// Stop asks a running worker to finish its current tasks and quit
func (m *BackgroundManager) Stop() {
	if m.worker != nil {
		m.worker.Quit()
	}
}

// HandleEvent is a background job archiving an event and saving the
// request and helper snapshots it carries
func (m *BackgroundManager) HandleEvent(payload string) error {
	var e schema.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		log.WithError(err).Error("decode event payload")
		return err
	}
	return m.persist(e)
}

func (m *BackgroundManager) persist(e schema.Event) error {
	if err := m.store.ArchiveEvent(e); err != nil {
		return err
	}

	if e.Request != nil {
		if err := m.store.SaveRequest(*e.Request); err != nil {
			return err
		}
	}

	if e.Helper != nil {
		if err := m.store.SaveHelper(*e.Helper); err != nil {
			return err
		}
	}

	log.WithField("event", e.Type).WithField("request", e.RequestID).Debug("event persisted")
	return nil
}
