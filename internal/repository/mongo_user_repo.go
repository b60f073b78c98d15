package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hitoshi/jobtrack/internal/job"
	"github.com/hitoshi/jobtrack/internal/model"
)

// usersCollection はユーザードキュメントを格納するコレクション名。
const usersCollection = "users"

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
// 1ユーザー = 1ドキュメントで、応募記録はjobs配列として埋め込まれる。
type MongoUserRepo struct {
	db *mongo.Database
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{db: db}
}

// userDoc はMongoDB上のユーザードキュメント表現。
type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"passwordHash"`
	Jobs         []jobDoc           `bson:"jobs"`
}

// jobDoc はjobs配列の1要素。応募日はBSON datetimeとして保存される。
type jobDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Company  string             `bson:"company"`
	Position string             `bson:"position"`
	Date     time.Time          `bson:"date"`
	Stage    string             `bson:"stage,omitempty"`
}

// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var doc userDoc
	err := r.collection().FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return docToUser(&doc), nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
// IDがObjectIDとして解釈できない場合も「見つからない」として扱う。
func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc userDoc
	err = r.collection().FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return docToUser(&doc), nil
}

// Create はユーザーを作成し、生成されたIDの16進表現を返す。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) (string, error) {
	doc := userDoc{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Jobs:         jobsToDocs(user.Jobs),
	}

	res, err := r.collection().InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type: %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// AddJob はユーザーのjobs配列に応募記録を$pushで追加する。
func (r *MongoUserRepo) AddJob(ctx context.Context, userID string, j *model.Job) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return model.NewUserNotFoundError()
	}

	doc, err := jobToDoc(j)
	if err != nil {
		return err
	}

	res, err := r.collection().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: uid}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "jobs", Value: doc}}}},
	)
	if err != nil {
		return fmt.Errorf("failed to push job: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.NewUserNotFoundError()
	}
	return nil
}

// UpdateJob は位置演算子$で指定応募記録に部分更新を適用し、一致件数を返す。
func (r *MongoUserRepo) UpdateJob(ctx context.Context, userID, jobID string, patch *model.JobPatch) (int64, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, nil
	}
	jid, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return 0, nil
	}

	set := bson.D{}
	if patch.Company != nil {
		set = append(set, bson.E{Key: "jobs.$.company", Value: *patch.Company})
	}
	if patch.Position != nil {
		set = append(set, bson.E{Key: "jobs.$.position", Value: *patch.Position})
	}
	if patch.Date != nil {
		set = append(set, bson.E{Key: "jobs.$.date", Value: *patch.Date})
	}
	if patch.Stage != nil {
		set = append(set, bson.E{Key: "jobs.$.stage", Value: *patch.Stage})
	}

	res, err := r.collection().UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: uid},
			{Key: "jobs._id", Value: jid},
		},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update job: %w", err)
	}
	return res.MatchedCount, nil
}

// RemoveJob は$pullで指定応募記録を配列から取り除き、削除件数を返す。
func (r *MongoUserRepo) RemoveJob(ctx context.Context, userID, jobID string) (int64, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, nil
	}
	jid, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return 0, nil
	}

	res, err := r.collection().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: uid}},
		bson.D{{Key: "$pull", Value: bson.D{
			{Key: "jobs", Value: bson.D{{Key: "_id", Value: jid}}},
		}}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to pull job: %w", err)
	}
	return res.ModifiedCount, nil
}

// ClearJobs はユーザーの全応募記録を削除し、削除件数を返す。
// 件数は削除前のドキュメントから数える。
func (r *MongoUserRepo) ClearJobs(ctx context.Context, userID string) (int64, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}

	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, nil
	}

	_, err = r.collection().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: uid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "jobs", Value: bson.A{}}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear jobs: %w", err)
	}
	return int64(len(user.Jobs)), nil
}

// ListJobs はクエリ仕様を集約パイプラインとして実行する。
// インメモリ実装のjob.Applyと同一の結果を返さなければならない。
func (r *MongoUserRepo) ListJobs(ctx context.Context, userID string, q *job.Query) ([]model.Job, int, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []model.Job{}, 0, nil
	}

	pipeline := buildJobsPipeline(uid, q)

	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to aggregate jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Data  []jobDoc `bson:"data"`
		Total []struct {
			Count int `bson:"count"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, fmt.Errorf("failed to decode aggregation result: %w", err)
	}

	jobs := []model.Job{}
	total := 0
	if len(results) > 0 {
		for i := range results[0].Data {
			jobs = append(jobs, docToJob(&results[0].Data[i]))
		}
		if len(results[0].Total) > 0 {
			total = results[0].Total[0].Count
		}
	}
	return jobs, total, nil
}

// Ping はプライマリへの到達性を確認する。
func (r *MongoUserRepo) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

// buildJobsPipeline はクエリ仕様から集約パイプラインを構築する。
//
// 段階: $match（ユーザー特定）→ $unwind（jobs展開）→ $match（フィルタ、
// 条件がある場合のみ）→ $replaceRoot（jobを文書ルートへ）→ $sort（応募日）
// → $facet（ページと総数の並列算出）。
func buildJobsPipeline(userID primitive.ObjectID, q *job.Query) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "_id", Value: userID}}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$jobs"},
			{Key: "preserveNullAndEmptyArrays", Value: false},
		}}},
	}

	match := bson.D{}
	if len(q.Companies) > 0 {
		match = append(match, bson.E{Key: "jobs.company", Value: bson.D{{Key: "$in", Value: q.Companies}}})
	}
	if len(q.Positions) > 0 {
		match = append(match, bson.E{Key: "jobs.position", Value: bson.D{{Key: "$in", Value: q.Positions}}})
	}
	if len(q.Stages) > 0 {
		match = append(match, bson.E{Key: "jobs.stage", Value: bson.D{{Key: "$in", Value: q.Stages}}})
	}
	if q.DateFrom != nil || q.DateTo != nil {
		cond := bson.D{}
		if q.DateFrom != nil {
			cond = append(cond, bson.E{Key: "$gte", Value: *q.DateFrom})
		}
		if q.DateTo != nil {
			cond = append(cond, bson.E{Key: "$lte", Value: *q.DateTo})
		}
		match = append(match, bson.E{Key: "jobs.date", Value: cond})
	}
	if q.Search != "" {
		// インメモリ実装のstrings.Containsと一致させるため、正規表現メタ文字はエスケープする
		regex := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		match = append(match, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "jobs.company", Value: regex}},
			bson.D{{Key: "jobs.position", Value: regex}},
			bson.D{{Key: "jobs.stage", Value: regex}},
		}})
	}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}

	pipeline = append(pipeline, bson.D{{Key: "$replaceRoot", Value: bson.D{
		{Key: "newRoot", Value: "$jobs"},
	}}})

	sortDir := -1
	if q.Sort == job.SortOldest {
		sortDir = 1
	}
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "date", Value: sortDir}}}})

	pipeline = append(pipeline, bson.D{{Key: "$facet", Value: bson.D{
		{Key: "data", Value: bson.A{
			bson.D{{Key: "$skip", Value: q.Offset()}},
			bson.D{{Key: "$limit", Value: q.PageSize}},
		}},
		{Key: "total", Value: bson.A{
			bson.D{{Key: "$count", Value: "count"}},
		}},
	}}})

	return pipeline
}

func (r *MongoUserRepo) collection() *mongo.Collection {
	return r.db.Collection(usersCollection)
}

// docToUser はドキュメント表現をドメインモデルに変換する。
func docToUser(doc *userDoc) *model.User {
	jobs := make([]model.Job, len(doc.Jobs))
	for i := range doc.Jobs {
		jobs[i] = docToJob(&doc.Jobs[i])
	}
	return &model.User{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		Jobs:         jobs,
	}
}

func docToJob(doc *jobDoc) model.Job {
	return model.Job{
		ID:       doc.ID.Hex(),
		Company:  doc.Company,
		Position: doc.Position,
		Date:     doc.Date,
		Stage:    doc.Stage,
	}
}

func jobToDoc(j *model.Job) (jobDoc, error) {
	oid, err := primitive.ObjectIDFromHex(j.ID)
	if err != nil {
		return jobDoc{}, fmt.Errorf("invalid job ID %q: %w", j.ID, err)
	}
	return jobDoc{
		ID:       oid,
		Company:  j.Company,
		Position: j.Position,
		Date:     j.Date,
		Stage:    j.Stage,
	}, nil
}

func jobsToDocs(jobs []model.Job) []jobDoc {
	docs := make([]jobDoc, 0, len(jobs))
	for i := range jobs {
		// 新規作成時のjobsは常に空。ID不正の要素は保存対象にしない。
		if doc, err := jobToDoc(&jobs[i]); err == nil {
			docs = append(docs, doc)
		}
	}
	return docs
}
