package messenger

import (
	"context"
	"os"
	"sync"

	firebase "firebase.google.com/go/v4"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/ypereira/messenger/blob"
	"github.com/ypereira/messenger/conversation"
	"github.com/ypereira/messenger/store"
	"github.com/ypereira/messenger/user"
)

const (
	ErrorMsgLogField       = "errorMsg"
	bodyLogField           = "body"
	userIDLogField         = "userID"
	conversationIDLogField = "conversationID"
	otherUserEmailLogField = "otherUserEmail"
	requestIDLogField      = "requestID"
)

var (
	databaseURL   = os.Getenv("DATABASE_URL")
	storageBucket = os.Getenv("STORAGE_BUCKET")
)

func init() {
	functions.HTTP("Register", Register)
	functions.HTTP("CreateConversation", CreateConversation)
	functions.HTTP("SendMessage", SendMessage)
	functions.HTTP("DeleteConversation", DeleteConversation)
	functions.HTTP("Conversations", Conversations)
	functions.HTTP("Messages", Messages)
	functions.HTTP("Users", Users)
	functions.HTTP("UploadAttachment", UploadAttachment)
}

type service struct {
	sync     *conversation.Synchronizer
	queries  *conversation.Queries
	accounts *user.Accounts
	blobs    *blob.Storage
}

var (
	serviceOnce sync.Once
	svc         *service
	svcErr      error
)

// getService wires the store client and its consumers once per instance;
// function instances are reused across requests.
func getService(ctx context.Context) (*service, error) {
	serviceOnce.Do(func() {
		svc, svcErr = newService(ctx)
	})
	return svc, svcErr
}

func newService(ctx context.Context) (*service, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{
		DatabaseURL:   databaseURL,
		StorageBucket: storageBucket,
	})
	if err != nil {
		return nil, err
	}
	st, err := store.NewFirebase(ctx, app)
	if err != nil {
		return nil, err
	}
	blobs, err := blob.New(ctx, app)
	if err != nil {
		return nil, err
	}
	return &service{
		sync:     conversation.NewSynchronizer(st),
		queries:  conversation.NewQueries(st),
		accounts: user.NewAccounts(st),
		blobs:    blobs,
	}, nil
}
