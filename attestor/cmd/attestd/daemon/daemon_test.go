package daemon_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	dcli "github.com/babylonchain/guardian-attestor/attestor/cmd/attestd/daemon"
	"github.com/babylonchain/guardian-attestor/attestor/rpc"
	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/testutil"
	"github.com/babylonchain/guardian-attestor/types"
)

const numTestGuardians = 3

func FuzzSignAndVerifyEnvelope(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 5)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))

		homeDir := filepath.Join(t.TempDir(), "attestd-home")
		hFlag := fmt.Sprintf("--home=%s", homeDir)
		app := testApp()

		keyNames, addrs := initHomeWithGuardians(r, t, app, hFlag)

		emitter := testutil.GenRandomAddress(r)
		seq := r.Uint64()
		payloadHex := testutil.GenRandomHexStr(r, 1+uint64(r.Intn(64)))

		signArgs := []string{
			"attestd", "sign", hFlag,
			"--emitter-chain=ethereum",
			fmt.Sprintf("--emitter-address=%s", emitter.String()),
			fmt.Sprintf("--sequence=%d", seq),
			fmt.Sprintf("--nonce=%d", r.Uint32()),
			fmt.Sprintf("--payload=%s", payloadHex),
		}
		for i, name := range keyNames {
			signArgs = append(signArgs, fmt.Sprintf("--guardian-key=%d:%s", i, name))
		}

		var signed dcli.SignedEnvelope
		appRunJSON(r, t, app, signArgs, &signed)
		require.Equal(t, numTestGuardians, signed.NumSignatures)
		require.Equal(t, types.MessageID(types.ChainIDEthereum, emitter, seq), signed.MessageID)

		var res rpc.Attestation
		appRunJSON(r, t, app, []string{"attestd", "verify", hFlag, signed.EnvelopeHex}, &res)
		require.Equal(t, signed.MessageID, res.MessageID)
		require.Equal(t, signed.Digest, res.Digest)
		require.Equal(t, seq, res.Sequence)
		require.Equal(t, emitter, res.EmitterAddress)
		require.Equal(t, payloadHex, strings.TrimPrefix(res.Payload.String(), "0x"))
		require.False(t, res.Consumed)
		require.False(t, res.Executed)

		var status dcli.ClaimStatus
		appRunJSON(r, t, app, []string{
			"attestd", "claims", hFlag, "ethereum", emitter.String(), fmt.Sprintf("%d", seq),
		}, &status)
		require.False(t, status.Consumed)
		require.Equal(t, seq, status.Key.Sequence)

		var gs guardianset.GuardianSet
		appRunJSON(r, t, app, []string{"attestd", "guardian-set", hFlag}, &gs)
		require.Equal(t, uint32(0), gs.Index)
		require.Len(t, gs.Keys, len(addrs))
		for i, k := range gs.Keys {
			require.Equal(t, addrs[i], k.Hex())
		}
	})
}

func TestVerifyWithoutQuorumFails(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	homeDir := filepath.Join(t.TempDir(), "attestd-home")
	hFlag := fmt.Sprintf("--home=%s", homeDir)
	app := testApp()

	keyNames, _ := initHomeWithGuardians(r, t, app, hFlag)

	var signed dcli.SignedEnvelope
	appRunJSON(r, t, app, []string{
		"attestd", "sign", hFlag,
		"--emitter-chain=solana",
		fmt.Sprintf("--emitter-address=%s", testutil.GenRandomAddress(r).String()),
		"--sequence=1",
		fmt.Sprintf("--guardian-key=0:%s", keyNames[0]),
		fmt.Sprintf("--guardian-key=2:%s", keyNames[2]),
	}, &signed)
	require.Equal(t, 2, signed.NumSignatures)

	// 2 of 3 is below the 3 signatures a set of 3 needs
	err := app.Run([]string{"attestd", "verify", hFlag, signed.EnvelopeHex})
	require.Error(t, err)

	err = app.Run([]string{"attestd", "verify", hFlag, "zz"})
	require.Error(t, err)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "attestd-home")
	hFlag := fmt.Sprintf("--home=%s", homeDir)
	app := testApp()

	require.NoError(t, app.Run([]string{"attestd", "init", hFlag}))
	require.Error(t, app.Run([]string{"attestd", "init", hFlag}))
	require.NoError(t, app.Run([]string{"attestd", "init", hFlag, "--force"}))
}

// initHomeWithGuardians initializes a home whose genesis set is made of
// freshly generated local keys.
func initHomeWithGuardians(r *rand.Rand, t *testing.T, app *cli.App, hFlag string) ([]string, []string) {
	err := app.Run([]string{"attestd", "init", hFlag})
	require.NoError(t, err)

	keyNames := make([]string, numTestGuardians)
	addrs := make([]string, numTestGuardians)
	initArgs := []string{"attestd", "init", hFlag, "--force"}
	for i := range keyNames {
		keyNames[i] = fmt.Sprintf("guardian-%d-%s", i, testutil.GenRandomHexStr(r, 4))

		var keyOut dcli.KeyOutput
		appRunJSON(r, t, app, []string{"attestd", "keys", "generate", hFlag, fmt.Sprintf("--key-name=%s", keyNames[i])}, &keyOut)
		require.Equal(t, keyNames[i], keyOut.Name)
		require.FileExists(t, keyOut.KeyFile)

		var shown dcli.KeyOutput
		appRunJSON(r, t, app, []string{"attestd", "keys", "show", hFlag, fmt.Sprintf("--key-name=%s", keyNames[i])}, &shown)
		require.Equal(t, keyOut, shown)

		addrs[i] = keyOut.Address
		initArgs = append(initArgs, fmt.Sprintf("--genesis-key=%s", keyOut.Address))
	}

	err = app.Run(initArgs)
	require.NoError(t, err)

	return keyNames, addrs
}

func appRunJSON(r *rand.Rand, t *testing.T, app *cli.App, arguments []string, out interface{}) {
	output := appRunWithOutput(r, t, app, arguments)
	err := json.Unmarshal([]byte(strings.ReplaceAll(output, "\n", "")), out)
	require.NoError(t, err, output)
}

func appRunWithOutput(r *rand.Rand, t *testing.T, app *cli.App, arguments []string) (output string) {
	outPut := filepath.Join(t.TempDir(), fmt.Sprintf("%s-out.txt", testutil.GenRandomHexStr(r, 10)))
	outPutFile, err := os.Create(outPut)
	require.NoError(t, err)
	defer outPutFile.Close()

	// set file to stdout to read.
	oldStd := os.Stdout
	os.Stdout = outPutFile

	err = app.Run(arguments)

	// set to old stdout
	os.Stdout = oldStd
	require.NoError(t, err)

	return readFromFile(t, outPutFile)
}

func readFromFile(t *testing.T, f *os.File) string {
	_, err := f.Seek(0, 0)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(f)
	require.NoError(t, err)
	return buf.String()
}

func testApp() *cli.App {
	app := cli.NewApp()
	app.Name = "attestd"
	app.Commands = append(app.Commands, dcli.InitCommand, dcli.StartCommand, dcli.SignCommand)
	app.Commands = append(app.Commands, dcli.VerifyCommand, dcli.SubmitCommand, dcli.GuardianSetCommand, dcli.ClaimsCommand)
	app.Commands = append(app.Commands, dcli.KeysCommands...)
	return app
}
