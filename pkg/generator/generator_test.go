package generator

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/phptestgen/internal/mock"
	"github.com/cmmoran/phptestgen/internal/model"
	"github.com/cmmoran/phptestgen/internal/output"
	"github.com/cmmoran/phptestgen/internal/synth"
)

const composerJSON = `{
    "name": "acme/shop",
    "autoload": {
        "psr-4": {
            "Acme\\Tools\\": ["lib/", "tools/"],
            "App\\": "src/"
        }
    }
}`

const calculatorPHP = `<?php
namespace App;

class Calculator
{
    public function add(int $a, int $b): int
    {
        return $a + $b;
    }
}
`

const ordersPHP = `<?php
namespace App\Order;

use App\Mail\Mailer;

class Service
{
    public function __construct(private Mailer $mailer) {}

    /**
     * Sends the confirmation.
     */
    public function confirm(string $email): bool
    {
        return $this->mailer->send($email);
    }
}
`

const mailerPHP = `<?php
namespace App\Mail;

interface Mailer
{
    public function send(string $to): bool;
}
`

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

func project(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, src := range map[string]string{
		"composer.json":         composerJSON,
		"src/Calculator.php":    calculatorPHP,
		"src/Order/Service.php": ordersPHP,
		"src/Mail/Mailer.php":   mailerPHP,
		"vendor/psr/Unused.php": "<?php\nnamespace Psr;\nclass Unused {}\n",
	} {
		require.NoError(t, afero.WriteFile(fs, name, []byte(src), 0o644))
	}
	return fs
}

func TestNormalize(t *testing.T) {
	o := &Options{MockBackend: " PHPUnit "}
	require.NoError(t, o.Normalize("save", `\App\Repo::find`))
	require.Equal(t, mock.BackendPHPUnit, o.MockBackend)
	require.Equal(t, []string{"src/**/*.php"}, o.Sources)
	require.Equal(t, "tests/Unit", o.TestDir)
	require.Equal(t, mock.DefaultMaxDepth, o.MaxDepth)
	require.Equal(t, 1, o.DataSets)
	require.Equal(t, []string{"save", `\App\Repo::find`}, o.Exclude.Methods)

	bad := NewOptions().Apply(WithMockBackend("prophecy"))
	require.ErrorIs(t, bad.Normalize(), model.ErrInvalidMockBackend)
}

func TestExcludeFilter(t *testing.T) {
	e := Exclude{
		Classes:          []string{`\App\Clock`},
		Methods:          []string{"save", `App\Repo::find`, " ", "Broken::"},
		AllExcept:        []string{`App\Client::get`, "nope"},
		DeclaringClasses: []string{"Exception"},
	}
	e.Add("save")
	want := mock.Filter{
		Classes:          []string{`App\Clock`},
		Methods:          []string{"save"},
		ClassMethods:     map[string][]string{`App\Repo`: {"find"}},
		AllExcept:        map[string][]string{`App\Client`: {"get"}},
		DeclaringClasses: []string{"Exception"},
	}
	if diff := cmp.Diff(want, e.Filter()); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestComposerNamespace(t *testing.T) {
	tests := []struct {
		name      string
		composer  string
		sourceDir string
		want      string
	}{
		{"string entry", composerJSON, "src", "App"},
		{"list entry", composerJSON, "./tools", `Acme\Tools`},
		{"no match falls back to first", composerJSON, "app", `Acme\Tools`},
		{"no autoload", `{"name": "acme/empty"}`, "src", ""},
		{"missing file", "", "src", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tc.composer != "" {
				require.NoError(t, afero.WriteFile(fs, "composer.json", []byte(tc.composer), 0o644))
			}
			got, err := ComposerNamespace(fs, tc.sourceDir)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestProject(t *testing.T) {
	ctx := context.Background()
	fs := project(t)
	opts := NewOptions().Apply(WithFs(fs), WithPHPUnitConfig("phpunit.xml"), WithIndexPaths("vendor/**/*.php"))
	g, err := New(ctx, opts, fixedNow, nil)
	require.NoError(t, err)
	require.Equal(t, "App", opts.ProjectNamespace)
	require.True(t, g.Registry().Exists(`Psr\Unused`))

	results, err := g.Project(ctx)
	require.NoError(t, err)
	statuses := map[string]synth.Status{}
	for _, r := range results {
		statuses[r.Class] = r.Status
	}
	require.Equal(t, map[string]synth.Status{
		`App\Calculator`:    synth.Created,
		`App\Mail\Mailer`:   synth.NotTestable,
		`App\Order\Service`: synth.Created,
	}, statuses)

	test, err := afero.ReadFile(fs, filepath.Join("tests", "Unit", "Order", "ServiceTest.php"))
	require.NoError(t, err)
	require.Contains(t, string(test), "public function confirmShouldReturnBool(")
	require.Contains(t, string(test), "$mailMailerMock = $this->createMailMailerMock($mockArgs['Mailer'], $mockTimes['Mailer']);")
	require.Contains(t, string(test), "* Sends the confirmation.")

	exists, err := afero.Exists(fs, filepath.Join("tests", "Unit", "Mock", "Mail", "MailerMockHelper.php"))
	require.NoError(t, err)
	require.True(t, exists)
	exists, err = afero.Exists(fs, filepath.Join("tests", "Unit", "UnitTestCase.php"))
	require.NoError(t, err)
	require.True(t, exists)

	xml, err := afero.ReadFile(fs, "phpunit.xml")
	require.NoError(t, err)
	require.Contains(t, string(xml), `<testsuite name="Order Test Suite">`)
	require.Contains(t, string(xml), "<file>tests/Unit/Order/ServiceTest.php</file>")

	// A second run over the same tree only skips.
	g, err = New(ctx, NewOptions().Apply(WithFs(fs), WithPHPUnitConfig("phpunit.xml")), fixedNow, nil)
	require.NoError(t, err)
	_, err = g.Project(ctx)
	require.NoError(t, err)
	for _, c := range g.Changes() {
		require.Equal(t, output.Skipped, c.Kind, c.Path)
	}
}

func TestDryRun(t *testing.T) {
	ctx := context.Background()
	fs := project(t)
	g, err := New(ctx, NewOptions().Apply(WithFs(fs), WithDryRun()), fixedNow, nil)
	require.NoError(t, err)

	res, err := g.Class(ctx, "src/Calculator.php")
	require.NoError(t, err)
	require.Equal(t, `App\Calculator`, res.Class)
	require.Equal(t, synth.Created, res.Status)

	exists, err := afero.Exists(fs, res.Target.Path)
	require.NoError(t, err)
	require.False(t, exists)

	var diffs []string
	for _, c := range g.Changes() {
		diffs = append(diffs, c.Diff())
	}
	joined := strings.Join(diffs, "\n")
	require.Contains(t, joined, "+    public function addShouldReturnInt(array $mockArgs, array $mockTimes): void")
}

func TestClassErrors(t *testing.T) {
	ctx := context.Background()
	g, err := New(ctx, NewOptions().Apply(WithFs(project(t))), fixedNow, nil)
	require.NoError(t, err)

	_, err = g.Class(ctx, `App\Missing`)
	require.ErrorIs(t, err, model.ErrInvalidClassName)
	_, err = g.Class(ctx, "src/Nope.php")
	require.ErrorIs(t, err, model.ErrFileNotExists)
}

func TestClassOutsideSources(t *testing.T) {
	ctx := context.Background()
	fs := project(t)
	src := "<?php\nnamespace App\\Tools;\n\nclass HelperItem {}\n\nclass Helper\n{\n    public function ping(): bool { return true; }\n}\n"
	require.NoError(t, afero.WriteFile(fs, "tools/Helper.php", []byte(src), 0o644))

	g, err := New(ctx, NewOptions().Apply(WithFs(fs)), fixedNow, nil)
	require.NoError(t, err)
	require.False(t, g.Registry().Exists(`App\Tools\Helper`))

	res, err := g.Class(ctx, "./tools/Helper.php")
	require.NoError(t, err)
	require.Equal(t, `App\Tools\Helper`, res.Class)
	require.Equal(t, synth.Created, res.Status)
	require.Equal(t, filepath.Join("tests", "Unit", "Tools", "HelperTest.php"), res.Target.Path)
}
