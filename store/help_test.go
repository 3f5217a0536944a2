package store

import (
	"os"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/stretchr/testify/suite"

	"github.com/helpme-app/helpme-api/schema"
)

type HelpStoreTestSuite struct {
	suite.Suite
	connString string
	ormDB      *gorm.DB
	store      *HelpStore
}

func (s *HelpStoreTestSuite) SetupSuite() {
	if s.connString == "" {
		s.T().Skip("HELPME_TEST_POSTGRES is not set")
	}

	db, err := gorm.Open("postgres", s.connString)
	if err != nil {
		s.T().Skipf("postgres is not reachable: %s", err)
	}

	s.ormDB = db
	s.store = NewHelpStore(db)
}

func (s *HelpStoreTestSuite) SetupTest() {
	s.NoError(s.ormDB.DropTableIfExists(&schema.HelpRequest{}, &schema.Helper{}, &schema.EventRecord{}).Error)
	s.NoError(s.ormDB.AutoMigrate(&schema.HelpRequest{}, &schema.Helper{}, &schema.EventRecord{}).Error)
}

func (s *HelpStoreTestSuite) TearDownSuite() {
	if s.ormDB != nil {
		s.ormDB.Close()
	}
}

func (s *HelpStoreTestSuite) request(id string, status schema.RequestStatus, createdAt time.Time) schema.HelpRequest {
	r := schema.HelpRequest{
		ID:          id,
		RequesterID: "requester",
		Category:    schema.CategoryFirstAid,
		Title:       "Injury",
		Description: "Sprained ankle",
		Location:    schema.Location{Latitude: 24.7136, Longitude: 46.6753},
		Status:      status,
		CreatedAt:   createdAt,
	}
	if status == schema.RequestAccepted {
		r.HelperID = "helper-1"
		r.AcceptedAt = &createdAt
	}
	return r
}

func (s *HelpStoreTestSuite) TestRequests() {
	now := time.Now().UTC().Truncate(time.Second)

	s.NoError(s.store.SaveRequest(s.request("r1", schema.RequestActive, now.Add(-13*time.Hour))))
	s.NoError(s.store.SaveRequest(s.request("r2", schema.RequestActive, now)))
	s.NoError(s.store.SaveRequest(s.request("r3", schema.RequestAccepted, now)))

	// saving again overwrites the snapshot
	cancelled := s.request("r2", schema.RequestCancelled, now)
	s.NoError(s.store.SaveRequest(cancelled))

	r, err := s.store.GetRequest("r2")
	s.NoError(err)
	s.Equal(schema.RequestCancelled, r.Status)

	_, err = s.store.GetRequest("missing")
	s.Equal(ErrRequestNotExist, err)

	active, err := s.store.ListRequests(schema.RequestActive, schema.RequestAccepted)
	s.NoError(err)
	s.Len(active, 2)
	s.Equal("r1", active[0].ID)

	stale, err := s.store.ListStaleRequests(now.Add(-12 * time.Hour))
	s.NoError(err)
	s.Len(stale, 1)
	s.Equal("r1", stale[0].ID)

	s.NoError(s.store.SaveHelper(schema.Helper{ID: "helper-1", Available: true}))
	s.NoError(s.store.SaveHelper(schema.Helper{ID: "helper-2"}))

	stats, err := s.store.RequestStats()
	s.NoError(err)
	s.Equal(schema.RequestStats{
		Total:            3,
		Active:           1,
		Accepted:         1,
		Cancelled:        1,
		AvailableHelpers: 1,
		BusyHelpers:      1,
	}, stats)
}

func (s *HelpStoreTestSuite) TestOutdatedSnapshotIsIgnored() {
	now := time.Now().UTC().Truncate(time.Second)

	// the accepted snapshot is written before the created one
	s.NoError(s.store.SaveRequest(s.request("r1", schema.RequestAccepted, now)))
	s.NoError(s.store.SaveRequest(s.request("r1", schema.RequestActive, now)))

	r, err := s.store.GetRequest("r1")
	s.NoError(err)
	s.Equal(schema.RequestAccepted, r.Status)
	s.Equal("helper-1", r.HelperID)

	active, err := s.store.ListRequests(schema.RequestActive)
	s.NoError(err)
	s.Len(active, 0)

	completed := s.request("r1", schema.RequestCompleted, now)
	completed.HelperID = "helper-1"
	s.NoError(s.store.SaveRequest(completed))
	s.NoError(s.store.SaveRequest(s.request("r1", schema.RequestAccepted, now)))

	r, err = s.store.GetRequest("r1")
	s.NoError(err)
	s.Equal(schema.RequestCompleted, r.Status)
}

func (s *HelpStoreTestSuite) TestHelpers() {
	loc := schema.Location{Latitude: 24.7136, Longitude: 46.6753}
	s.NoError(s.store.SaveHelper(schema.Helper{ID: "helper-2", Name: "Fatima", Rating: 4.7}))
	s.NoError(s.store.SaveHelper(schema.Helper{ID: "helper-1", Name: "Mohammed", Rating: 4.9, Available: true, Location: &loc}))

	h, err := s.store.GetHelper("helper-1")
	s.NoError(err)
	s.Equal("Mohammed", h.Name)
	s.Equal(loc, *h.Location)

	_, err = s.store.GetHelper("missing")
	s.Equal(ErrHelperNotExist, err)

	helpers, err := s.store.ListHelpers()
	s.NoError(err)
	s.Len(helpers, 2)
	s.Equal("helper-1", helpers[0].ID)
}

func (s *HelpStoreTestSuite) TestEvents() {
	now := time.Now().UTC()
	s.NoError(s.store.ArchiveEvent(schema.Event{Type: schema.EventRequestCreated, RequestID: "r1", At: now}))
	s.NoError(s.store.ArchiveEvent(schema.Event{Type: schema.EventOfferIssued, RequestID: "r1", HelperID: "h1", At: now.Add(time.Second)}))
	s.NoError(s.store.ArchiveEvent(schema.Event{Type: schema.EventRequestCreated, RequestID: "r2", At: now}))

	records, err := s.store.ListEvents("r1")
	s.NoError(err)
	s.Len(records, 2)
	s.Equal(schema.EventOfferIssued, records[1].Type)
	s.Equal("h1", records[1].Payload.HelperID)
}

func TestHelpStoreTestSuite(t *testing.T) {
	suite.Run(t, &HelpStoreTestSuite{connString: os.Getenv("HELPME_TEST_POSTGRES")})
}
