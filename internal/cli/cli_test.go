package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/types"
)

const janeDoeText = "Jane Doe\njane.doe@example.com\nEDUCATION\nBachelor of Science in Computer Science, ABC University (2015 - 2019)\nSKILLS\nPython, SQL, Docker\nEXPERIENCE\nSoftware Engineer\nTechCorp\n01/2020 - Present"

const johnRoeText = "John Roe\njohn.roe@example.com\nSKILLS\nJava, Kubernetes\nEXPERIENCE\nSenior Software Engineer | Initech | 01/2012 - 12/2020\nLed the platform team"

type cliEnv struct {
	dir    string
	config string
	db     string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		db:     filepath.Join(dir, "data", "resumes.db"),
	}
	require.NoError(t, os.WriteFile(env.config, []byte("logger:\n  level: warn\n"), 0o644))
	return env
}

func (e *cliEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run 执行一次命令，返回stdout
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	root := NewRootCommand()
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "resumectl", root.Use)

	for _, name := range []string{"extract", "score", "import", "search", "shortlist", "stats"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestExtractCmd(t *testing.T) {
	env := newCLIEnv(t)
	path := env.writeFile(t, "jane.txt", janeDoeText)

	out, err := env.run(t, "extract", path)
	require.NoError(t, err)

	var record types.ResumeRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record), out)
	assert.Equal(t, "Jane", record.Contact.FirstName)
	assert.Equal(t, "jane.doe@example.com", record.Contact.Email)
	assert.True(t, record.Skills.Contains("python"))
	assert.Equal(t, types.ScoreSchemeWeighted, record.Score.Scheme)
	assert.Empty(t, record.Sections, "默认不输出章节")

	out, err = env.run(t, "extract", "--scheme", "coarse", "--sections", path)
	require.NoError(t, err)
	record = types.ResumeRecord{}
	require.NoError(t, json.Unmarshal([]byte(out), &record), out)
	assert.Equal(t, types.ScoreSchemeCoarse, record.Score.Scheme)
	assert.NotEmpty(t, record.Sections)
}

func TestExtractCmdErrors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")

	_, err = env.run(t, "extract", filepath.Join(env.dir, "missing.txt"))
	assert.Error(t, err)

	path := env.writeFile(t, "jane.txt", janeDoeText)
	_, err = env.run(t, "extract", "--scheme", "fancy", path)
	assert.Error(t, err, "未知评分方案")
}

func TestScoreCmd(t *testing.T) {
	env := newCLIEnv(t)
	path := env.writeFile(t, "jane.txt", janeDoeText)

	out, err := env.run(t, "score", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scheme: weighted")
	assert.Contains(t, out, "Skills")
	assert.Contains(t, out, "Experience")
	assert.Contains(t, out, "Total:")

	out, err = env.run(t, "score", "--scheme", "coarse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scheme: coarse")
	assert.Contains(t, out, "Email")
}

func searchJSON(t *testing.T, env *cliEnv, args ...string) []*storage.Candidate {
	t.Helper()
	out, err := env.run(t, append([]string{"search", "--json"}, args...)...)
	require.NoError(t, err)
	var candidates []*storage.Candidate
	require.NoError(t, json.Unmarshal([]byte(out), &candidates), out)
	return candidates
}

func TestImportSearchShortlist(t *testing.T) {
	env := newCLIEnv(t)
	jane := env.writeFile(t, "jane.txt", janeDoeText)
	john := env.writeFile(t, "john.txt", johnRoeText)

	out, err := env.run(t, "import", "--source", "referral", jane, john)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 of 2 file(s)")
	assert.FileExists(t, env.db)

	all := searchJSON(t, env)
	require.Len(t, all, 2)
	for _, c := range all {
		assert.Equal(t, "referral", c.SourceChannel)
		assert.Nil(t, c.Record)
	}

	found := searchJSON(t, env, "--category", "Skills", "kubernetes")
	require.Len(t, found, 1)
	assert.Equal(t, "John", found[0].FirstName)

	out, err = env.run(t, "shortlist", found[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Shortlisted "+found[0].ID)

	shortlisted := searchJSON(t, env, "--shortlisted")
	require.Len(t, shortlisted, 1)
	assert.Equal(t, found[0].ID, shortlisted[0].ID)

	others := searchJSON(t, env, "--shortlisted=false")
	require.Len(t, others, 1)
	assert.Equal(t, "Jane", others[0].FirstName)

	out, err = env.run(t, "stats", "--json")
	require.NoError(t, err)
	var stats storage.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats), out)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 1, stats.Shortlisted)

	out, err = env.run(t, "search", "nobody@example.org")
	require.NoError(t, err)
	assert.Contains(t, out, "No candidates found.")

	_, err = env.run(t, "shortlist", "--remove", found[0].ID)
	require.NoError(t, err)
	assert.Empty(t, searchJSON(t, env, "--shortlisted"))
}

func TestImportCmdFailures(t *testing.T) {
	env := newCLIEnv(t)
	jane := env.writeFile(t, "jane.txt", janeDoeText)
	blank := env.writeFile(t, "blank.txt", "  \n")

	out, err := env.run(t, "import", jane, blank, filepath.Join(env.dir, "missing.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 file(s) failed")
	assert.Contains(t, out, "Imported 1 of 3 file(s)")

	_, err = env.run(t, "import", "--publish", jane)
	assert.Error(t, err, "未配置RabbitMQ时不能发布")
}

func TestShortlistUnknownCandidate(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "shortlist", "missing")
	assert.ErrorIs(t, err, storage.ErrCandidateNotFound)
}
