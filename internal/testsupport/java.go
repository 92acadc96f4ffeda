package testsupport

// FakeJava stands in for the Java runtime in CLI tests. It recognises the
// apktool and uber-apk-signer invocations by jar name: "d" writes a decoded
// tree, "b" writes a small archive, and signing prints a verification line.
// Setting FAKE_JAVA_FAIL_AAPT2 makes AAPT2 builds fail; FAKE_JAVA_FAIL_SIGN
// makes signing fail.
const FakeJava = `#!/bin/sh
if [ "$1" = "-version" ]; then
	echo 'openjdk version "17.0.9" 2023-10-17' >&2
	exit 0
fi
jar="$2"
case "$jar" in
*apktool*.jar)
	case "$3" in
	d)
		out="$6"
		echo "I: Using Apktool 2.9.3 on $(basename "$4")"
		mkdir -p "$out/res/values" "$out/smali/com/example/app"
		cat > "$out/AndroidManifest.xml" <<'MANIFEST'
<?xml version="1.0" encoding="utf-8" standalone="no"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.example.app">
    <application android:label="@string/app_name">
        <meta-data android:name="com.android.vending.splits.required" android:value="true"/>
    </application>
</manifest>
MANIFEST
		printf 'apkFileName: app.apk\nsdkInfo:\n  minSdkVersion: 21\n' > "$out/apktool.yml"
		echo "I: Copying original files..."
		;;
	b)
		out="$6"
		if [ "$7" = "--use-aapt2" ] && [ -n "$FAKE_JAVA_FAIL_AAPT2" ]; then
			echo "W: error: failed linking file resources." >&2
			exit 1
		fi
		echo "I: Building apk file..."
		printf 'PK-fake-archive' > "$out"
		;;
	--version)
		echo "2.9.3"
		;;
	esac
	;;
*signer*.jar)
	if [ -n "$FAKE_JAVA_FAIL_SIGN" ]; then
		echo "signing failed" >&2
		exit 1
	fi
	echo "source:"
	echo "	$4"
	echo "VERIFY"
	;;
esac
exit 0
`
